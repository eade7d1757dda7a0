package app

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"github.com/mooyang-code/tem-client/pkg/tem"
)

// CommandRunner 执行一次性查询与换算命令，结果以JSON写入输出
type CommandRunner struct {
	client *tem.Client
	out    io.Writer
}

// NewCommandRunner 创建命令执行器，client为nil时只能执行本地换算命令
func NewCommandRunner(client *tem.Client, out io.Writer) *CommandRunner {
	return &CommandRunner{client: client, out: out}
}

// IsLocalCommand 判断命令是否无需访问API
func IsLocalCommand(name string) bool {
	return name == "convert" || name == "payment"
}

// Run 执行命令
func (r *CommandRunner) Run(ctx context.Context, name string, args []string) error {
	if !IsLocalCommand(name) && r.client == nil {
		return fmt.Errorf("命令 %s 需要API客户端", name)
	}

	switch name {
	case "status":
		return r.status(ctx)
	case "info":
		info, err := r.client.GetMarketInfo(ctx)
		if err != nil {
			return err
		}
		return r.print(info)
	case "balance":
		if len(args) != 1 {
			return fmt.Errorf("用法: balance <address>")
		}
		balance, err := r.client.GetBalance(ctx, args[0])
		if err != nil {
			return err
		}
		return r.print(map[string]interface{}{"address": args[0], "balance": balance})
	case "orders":
		return r.orders(ctx, args)
	case "order":
		if len(args) != 1 {
			return fmt.Errorf("用法: order <id>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("订单ID无效: %s", args[0])
		}
		order, err := r.client.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		return r.print(order)
	case "convert":
		return r.convert(args)
	case "payment":
		return r.payment(args)
	default:
		return fmt.Errorf("未知命令: %s", name)
	}
}

// status 检查API状态
func (r *CommandRunner) status(ctx context.Context) error {
	err := r.client.CheckStatus(ctx)
	result := map[string]interface{}{"available": err == nil}
	if err != nil {
		result["error"] = err.Error()
	}
	return r.print(result)
}

// orders 拉取全部订单，支持 [status] [address] 过滤
func (r *CommandRunner) orders(ctx context.Context, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("用法: orders [status] [address]")
	}
	var filter tem.OrderFilter
	if len(args) > 0 {
		filter.Status = tem.OrderStatus(args[0])
		if !filter.Status.Valid() {
			return fmt.Errorf("订单状态无效: %s", args[0])
		}
	}
	if len(args) > 1 {
		filter.Address = args[1]
	}

	orders, err := r.client.GetAllOrders(ctx, filter)
	if err != nil {
		return err
	}
	return r.print(map[string]interface{}{"total": len(orders), "orders": orders})
}

// convert SUN与TRX互相换算
func (r *CommandRunner) convert(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("用法: convert sun|trx <value>")
	}
	value, err := tem.ParseAmount(args[1])
	if err != nil {
		return err
	}

	var result decimal.Decimal
	switch args[0] {
	case "sun":
		result, err = tem.SunToTRX(value)
		if err != nil {
			return err
		}
		return r.print(map[string]interface{}{"sun": value, "trx": result})
	case "trx":
		result, err = tem.TRXToSun(value)
		if err != nil {
			return err
		}
		return r.print(map[string]interface{}{"trx": value, "sun": result})
	default:
		return fmt.Errorf("换算单位无效: %s", args[0])
	}
}

// payment 计算订单应付金额
func (r *CommandRunner) payment(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("用法: payment <price> <amount> <duration>")
	}
	values := make([]decimal.Decimal, len(args))
	for i, arg := range args {
		v, err := tem.ParseAmount(arg)
		if err != nil {
			return err
		}
		values[i] = v
	}

	payment := tem.CalculatePayment(values[0], values[1], values[2])
	trx, err := tem.SunToTRX(payment)
	if err != nil {
		return err
	}
	return r.print(map[string]interface{}{
		"billable_duration": tem.BillableDuration(values[2]),
		"payment_sun":       payment,
		"payment_trx":       trx,
	})
}

// print 以缩进JSON输出结果
func (r *CommandRunner) print(v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}
