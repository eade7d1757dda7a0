package tem

import (
	"context"
	"errors"
)

// pageFetcher 拉取 [skip, skip+take) 范围内的一页记录
type pageFetcher[T any] func(ctx context.Context, skip, take int) ([]T, error)

// collectPages 顺序拉取所有分页并按服务端顺序拼接。
//
// 每页的偏移依赖上一页的实际条数，因此同一时刻只有一个请求在途。
// 收到不足 take 条（包括空页）时结束；已收集过的 id 会被丢弃。
// 满页却没有带来任何新记录说明服务端忽略了 skip，此时报错而不是无限循环。
// 任何失败都会丢弃已收集的部分结果。
func collectPages[T any](ctx context.Context, take int, id func(T) int64, fetch pageFetcher[T]) ([]T, error) {
	if take <= 0 {
		return nil, invalidRequest("list_all", "take", "page size must be positive")
	}

	var (
		out   []T
		seen  = make(map[int64]struct{})
		skip  int
		pages int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, &AggregationError{Skip: skip, Take: take, Pages: pages, Err: err}
		}

		page, err := fetch(ctx, skip, take)
		if err != nil {
			return nil, &AggregationError{Skip: skip, Take: take, Pages: pages, Err: err}
		}
		pages++

		added := 0
		for _, item := range page {
			key := id(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
			added++
		}

		if len(page) < take {
			if out == nil {
				out = []T{}
			}
			return out, nil
		}
		if added == 0 {
			return nil, &AggregationError{Skip: skip, Take: take, Pages: pages, Err: errNoProgress}
		}
		skip += len(page)
	}
}

var errNoProgress = errors.New("full page contained no new records")
