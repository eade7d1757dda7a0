package tem

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/buger/jsonparser"
	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// spellings 返回规范字段名可接受的外部拼写，按 snake_case、camelCase、TitleCase 的优先级排列。
// 规范名本身即 snake_case 形式。
func spellings(canonical string) []string {
	parts := strings.Split(canonical, "_")
	var camel, title strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		upper := capitalize(part)
		title.WriteString(upper)
		if i == 0 {
			camel.WriteString(part)
		} else {
			camel.WriteString(upper)
		}
	}

	out := make([]string, 0, 3)
	for _, s := range []string{canonical, camel.String(), title.String()} {
		if s != "" && !containsString(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// rawValue 对象中某个键的原始值
type rawValue struct {
	key  string
	data []byte
	kind jsonparser.ValueType
}

// objectReader 按别名表从JSON对象读取字段，首个错误会被记录，后续读取变为空操作
type objectReader struct {
	entity string
	values map[string]rawValue
	err    error
}

// newObjectReader 索引JSON对象的顶层键。同一个键重复出现时保留第一次出现的值。
func newObjectReader(entity string, data []byte) (*objectReader, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, &ValidationError{
			Entity:   entity,
			Reason:   "malformed payload",
			Expected: "JSON object",
			Received: describeRaw(data),
		}
	}

	// 对象之后只允许空白
	if !sonic.ConfigStd.Valid(data) {
		return nil, &ValidationError{
			Entity:   entity,
			Reason:   "malformed payload",
			Expected: "JSON object",
			Received: describeRaw(data),
		}
	}

	r := &objectReader{entity: entity, values: make(map[string]rawValue)}
	err := jsonparser.ObjectEach(data, func(key []byte, value []byte, kind jsonparser.ValueType, _ int) error {
		k := string(key)
		if _, seen := r.values[k]; !seen {
			r.values[k] = rawValue{key: k, data: value, kind: kind}
		}
		return nil
	})
	if err != nil {
		return nil, &ValidationError{
			Entity:   entity,
			Reason:   "malformed payload: " + err.Error(),
			Expected: "JSON object",
		}
	}
	return r, nil
}

// Err 返回读取过程中遇到的第一个错误
func (r *objectReader) Err() error {
	return r.err
}

func (r *objectReader) fail(field, reason, expected, received string) {
	if r.err != nil {
		return
	}
	r.err = &ValidationError{
		Entity:   r.entity,
		Field:    field,
		Reason:   reason,
		Expected: expected,
		Received: received,
	}
}

// lookup 按优先级查找第一个出现的拼写，null 视为缺失
func (r *objectReader) lookup(names []string) (rawValue, bool) {
	for _, name := range names {
		v, ok := r.values[name]
		if !ok || v.kind == jsonparser.Null {
			continue
		}
		return v, true
	}
	return rawValue{}, false
}

// value 查找规范字段，required 为 true 且缺失时记录错误
func (r *objectReader) value(field string, required bool, extra ...string) (rawValue, bool) {
	if r.err != nil {
		return rawValue{}, false
	}
	names := spellings(field)
	for _, alias := range extra {
		if !containsString(names, alias) {
			names = append(names, alias)
		}
	}
	v, ok := r.lookup(names)
	if !ok && required {
		r.fail(field, "missing required field", "one of "+strings.Join(names, ", "), "")
	}
	return v, ok
}

// String 读取字符串字段
func (r *objectReader) String(field string, required bool) string {
	v, ok := r.value(field, required)
	if !ok {
		return ""
	}
	if v.kind != jsonparser.String {
		r.fail(field, "wrong type", "string", describe(v))
		return ""
	}
	s, err := jsonparser.ParseString(v.data)
	if err != nil {
		r.fail(field, "invalid string: "+err.Error(), "string", describe(v))
		return ""
	}
	return s
}

// Decimal 读取任意精度数值字段，接受JSON数字或数字字符串
func (r *objectReader) Decimal(field string, required bool, extra ...string) decimal.Decimal {
	v, ok := r.value(field, required, extra...)
	if !ok {
		return decimal.Zero
	}
	d, err := decimalFromRaw(v)
	if err != nil {
		r.fail(field, "wrong type", "number or numeric string", describe(v))
		return decimal.Zero
	}
	return d
}

// Integer 读取不含小数部分的数值字段
func (r *objectReader) Integer(field string, required bool, extra ...string) decimal.Decimal {
	d := r.Decimal(field, required, extra...)
	if r.err == nil && !d.IsInteger() {
		r.fail(field, "fractional value not allowed", "integer", d.String())
		return decimal.Zero
	}
	return d
}

// Int64 读取整数字段，缺失时返回 def
func (r *objectReader) Int64(field string, required bool, def int64) int64 {
	if _, ok := r.value(field, required); !ok {
		return def
	}
	d := r.Integer(field, true)
	if r.err != nil {
		return def
	}
	if !d.Equal(decimal.NewFromInt(d.IntPart())) {
		r.fail(field, "integer overflow", "64-bit integer", d.String())
		return def
	}
	return d.IntPart()
}

// Bool 读取布尔字段，缺失时返回 def
func (r *objectReader) Bool(field string, required bool, def bool) bool {
	v, ok := r.value(field, required)
	if !ok {
		return def
	}
	switch v.kind {
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(v.data)
		if err == nil {
			return b
		}
	case jsonparser.String:
		if b, err := strconv.ParseBool(string(v.data)); err == nil {
			return b
		}
	}
	r.fail(field, "wrong type", "boolean", describe(v))
	return def
}

// Time 读取时间字段，接受 RFC 3339 字符串或 unix 秒/毫秒
func (r *objectReader) Time(field string, required bool) time.Time {
	v, ok := r.value(field, required)
	if !ok {
		return time.Time{}
	}
	t, err := timeFromRaw(v)
	if err != nil {
		r.fail(field, "invalid timestamp", "RFC 3339 string or unix seconds", describe(v))
		return time.Time{}
	}
	return t
}

// StringList 读取单个字符串或字符串数组
func (r *objectReader) StringList(field string, required bool) []string {
	v, ok := r.value(field, required)
	if !ok {
		return nil
	}
	switch v.kind {
	case jsonparser.String:
		s, err := jsonparser.ParseString(v.data)
		if err == nil {
			return []string{s}
		}
	case jsonparser.Array:
		var (
			out    []string
			badRaw string
		)
		_, err := jsonparser.ArrayEach(v.data, func(item []byte, kind jsonparser.ValueType, _ int, _ error) {
			if badRaw != "" {
				return
			}
			if kind != jsonparser.String {
				badRaw = describe(rawValue{data: item, kind: kind})
				return
			}
			s, err := jsonparser.ParseString(item)
			if err != nil {
				badRaw = string(item)
				return
			}
			out = append(out, s)
		})
		if err == nil && badRaw == "" {
			return out
		}
	}
	r.fail(field, "wrong type", "string or array of strings", describe(v))
	return nil
}

// Int64List 读取整数数组
func (r *objectReader) Int64List(field string, required bool) []int64 {
	v, ok := r.value(field, required)
	if !ok {
		return nil
	}
	if v.kind != jsonparser.Array {
		r.fail(field, "wrong type", "array of integers", describe(v))
		return nil
	}
	out := []int64{}
	failed := false
	_, err := jsonparser.ArrayEach(v.data, func(item []byte, kind jsonparser.ValueType, _ int, _ error) {
		if failed {
			return
		}
		d, err := decimalFromRaw(rawValue{data: item, kind: kind})
		if err != nil || !d.IsInteger() {
			failed = true
			return
		}
		out = append(out, d.IntPart())
	})
	if err != nil || failed {
		r.fail(field, "wrong type", "array of integers", describe(v))
		return nil
	}
	return out
}

// Enum 读取闭集字符串字段，值不在集合内时报错而不是回退默认值
func (r *objectReader) Enum(field string, required bool, def string, valid func(string) bool, expected string) string {
	v, ok := r.value(field, required)
	if !ok {
		return def
	}
	if v.kind != jsonparser.String {
		r.fail(field, "wrong type", expected, describe(v))
		return def
	}
	s, err := jsonparser.ParseString(v.data)
	if err != nil || !valid(s) {
		r.fail(field, "value out of enumeration", expected, strconv.Quote(string(v.data)))
		return def
	}
	return s
}

// Resource 读取资源字段，接受数字编码或名称
func (r *objectReader) Resource(field string, required bool) Resource {
	v, ok := r.value(field, required)
	if !ok {
		return ResourceEnergy
	}
	var text string
	switch v.kind {
	case jsonparser.Number:
		text = string(v.data)
	case jsonparser.String:
		text, _ = jsonparser.ParseString(v.data)
	default:
		r.fail(field, "wrong type", resourceNames, describe(v))
		return ResourceEnergy
	}
	res, err := ParseResource(text)
	if err != nil {
		r.fail(field, "value out of enumeration", resourceNames, text)
		return ResourceEnergy
	}
	return res
}

// raw 返回字段的原始JSON，用于嵌套对象
func (r *objectReader) raw(field string, required bool, kind jsonparser.ValueType, extra ...string) ([]byte, bool) {
	v, ok := r.value(field, required, extra...)
	if !ok {
		return nil, false
	}
	if v.kind != kind {
		r.fail(field, "wrong type", kindName(kind), describe(v))
		return nil, false
	}
	return v.data, true
}

// readObject 读取嵌套对象并使用 parse 解析，嵌套字段的错误路径带上父字段前缀
func readObject[T any](r *objectReader, field string, required bool, parse func([]byte) (T, error)) T {
	var zero T
	data, ok := r.raw(field, required, jsonparser.Object)
	if !ok {
		return zero
	}
	v, err := parse(data)
	if err != nil {
		r.nestedFail(field, err)
		return zero
	}
	return v
}

// readObjectList 读取对象数组
func readObjectList[T any](r *objectReader, field string, required bool, parse func([]byte) (T, error), extra ...string) []T {
	data, ok := r.raw(field, required, jsonparser.Array, extra...)
	if !ok {
		return nil
	}
	out := []T{}
	var (
		index    int
		firstErr error
	)
	_, err := jsonparser.ArrayEach(data, func(item []byte, kind jsonparser.ValueType, _ int, _ error) {
		defer func() { index++ }()
		if firstErr != nil {
			return
		}
		if kind != jsonparser.Object {
			firstErr = &ValidationError{
				Field:    "",
				Reason:   "wrong type",
				Expected: "object",
				Received: describe(rawValue{data: item, kind: kind}),
			}
			r.nestedFail(field+"["+strconv.Itoa(index)+"]", firstErr)
			return
		}
		v, err := parse(item)
		if err != nil {
			firstErr = err
			r.nestedFail(field+"["+strconv.Itoa(index)+"]", err)
			return
		}
		out = append(out, v)
	})
	if err != nil {
		r.fail(field, "malformed array: "+err.Error(), "array", "")
		return nil
	}
	if firstErr != nil {
		return nil
	}
	return out
}

// nestedFail 记录嵌套解析错误，字段路径形如 market.total_energy
func (r *objectReader) nestedFail(prefix string, err error) {
	if r.err != nil {
		return
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		path := prefix
		if ve.Field != "" {
			path = prefix + "." + ve.Field
		}
		r.err = &ValidationError{
			Entity:   r.entity,
			Field:    path,
			Reason:   ve.Reason,
			Expected: ve.Expected,
			Received: ve.Received,
		}
		return
	}
	r.fail(prefix, err.Error(), "", "")
}

func decimalFromRaw(v rawValue) (decimal.Decimal, error) {
	switch v.kind {
	case jsonparser.Number:
		return decimal.NewFromString(string(v.data))
	case jsonparser.String:
		s, err := jsonparser.ParseString(v.data)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(strings.TrimSpace(s))
	}
	return decimal.Zero, errors.New("not a number")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func timeFromRaw(v rawValue) (time.Time, error) {
	switch v.kind {
	case jsonparser.String:
		s, err := jsonparser.ParseString(v.data)
		if err != nil {
			return time.Time{}, err
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errors.New("unknown time layout")
	case jsonparser.Number:
		d, err := decimal.NewFromString(string(v.data))
		if err != nil {
			return time.Time{}, err
		}
		// 大于 1e12 视为毫秒
		if d.GreaterThan(decimal.New(1, 12)) {
			return time.UnixMilli(d.IntPart()).UTC(), nil
		}
		return time.Unix(d.IntPart(), 0).UTC(), nil
	}
	return time.Time{}, errors.New("not a timestamp")
}

func kindName(kind jsonparser.ValueType) string {
	switch kind {
	case jsonparser.String:
		return "string"
	case jsonparser.Number:
		return "number"
	case jsonparser.Object:
		return "object"
	case jsonparser.Array:
		return "array"
	case jsonparser.Boolean:
		return "boolean"
	case jsonparser.Null:
		return "null"
	}
	return "unknown"
}

// describe 生成错误信息中的实际值描述
func describe(v rawValue) string {
	text := string(v.data)
	if v.kind == jsonparser.String {
		text = strconv.Quote(text)
	}
	return kindName(v.kind) + " " + truncate(text, maxDescribeLen)
}

func describeRaw(data []byte) string {
	if len(data) == 0 {
		return "empty body"
	}
	return truncate(string(data), maxDescribeLen)
}

const maxDescribeLen = 64

// truncate 截断到不超过n字节，不拆分多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
