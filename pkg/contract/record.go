package contract

import (
	"bytes"
	"encoding/json"
)

// Field: Record 中的一个键值对。
type Field struct {
	Key   string
	Value any
}

// Record: 保序映射（键 → 值）。
// 值的取值范围：string、json.Number、bool、nil（缺省值）、[]any、*Record。
// 约束：
//  1. 键按首次出现顺序保存；
//  2. 重复键保留首次位置，值取最后一次；
//  3. 零值可直接使用。
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord 创建空 Record（可选预分配容量）。
func NewRecord(capacity int) *Record {
	if capacity < 0 {
		capacity = 0
	}
	return &Record{fields: make([]Field, 0, capacity), index: make(map[string]int, capacity)}
}

// Set 写入键值；已存在的键原位替换。
func (r *Record) Set(key string, value any) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Get 读取键值。
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// Len 返回键数量。
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Keys 按插入顺序返回键的拷贝。
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Key
	}
	return out
}

// Fields 按插入顺序返回字段的浅拷贝。
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// ToMap 递归转换为 map[string]any（丢失键序，供类型化解码使用）。
func (r *Record) ToMap() map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		out[f.Key] = plainValue(f.Value)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case *Record:
		return x.ToMap()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = plainValue(x[i])
		}
		return out
	default:
		return v
	}
}

// MarshalJSON 按插入顺序输出对象；不转义 <, >, &。
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalNoEscape(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := marshalNoEscape(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape: json.Encoder + SetEscapeHTML(false)，去掉结尾换行。
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalJSON 输出 JSON 数组；nil 集合输出 []。
func (c Collection) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := r.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
