/*
 * Copyright 2025 The DocFlow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package document

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/rulego/docflow/utils/json"
)

// 类型标记 type tags of the storage envelope
const (
	tagString = "s"
	tagInt    = "i"
	tagLong   = "l"
	tagFloat  = "f"
	tagDouble = "d"
	tagBig    = "n"
	tagBool   = "b"
	tagTime   = "t"
	tagBytes  = "x"
	tagList   = "ls"
	tagMap    = "m"
)

// taggedValue 存储信封中的单个值
// The JSON representation keeps the basic type of every value so that a
// load returns the identical value graph.
type taggedValue struct {
	T string      `json:"t"`
	V interface{} `json:"v"`
}

// Marshal serializes the collection into the typed JSON storage envelope.
func Marshal(ic *ItemCollection) ([]byte, error) {
	envelope := make(map[string][]taggedValue, len(ic.items))
	for name, values := range ic.items {
		tagged := make([]taggedValue, 0, len(values))
		for _, v := range values {
			tv, err := encodeValue(v)
			if err != nil {
				return nil, err
			}
			tagged = append(tagged, tv)
		}
		envelope[name] = tagged
	}
	return json.Marshal(envelope)
}

// Unmarshal restores a collection from the typed JSON storage envelope.
func Unmarshal(data []byte) (*ItemCollection, error) {
	var envelope map[string][]taggedValue
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	ic := New()
	for name, tagged := range envelope {
		values := make([]interface{}, 0, len(tagged))
		for _, tv := range tagged {
			v, err := decodeValue(tv)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		ic.items[name] = values
	}
	return ic, nil
}

func encodeValue(value interface{}) (taggedValue, error) {
	switch v := value.(type) {
	case string:
		return taggedValue{T: tagString, V: v}, nil
	case int:
		return taggedValue{T: tagInt, V: v}, nil
	case int64:
		return taggedValue{T: tagLong, V: v}, nil
	case float32:
		return taggedValue{T: tagFloat, V: v}, nil
	case float64:
		return taggedValue{T: tagDouble, V: v}, nil
	case *big.Float:
		return taggedValue{T: tagBig, V: v.Text('g', -1)}, nil
	case bool:
		return taggedValue{T: tagBool, V: v}, nil
	case time.Time:
		return taggedValue{T: tagTime, V: v.Format(time.RFC3339Nano)}, nil
	case []byte:
		return taggedValue{T: tagBytes, V: base64.StdEncoding.EncodeToString(v)}, nil
	case []interface{}:
		list := make([]taggedValue, 0, len(v))
		for _, e := range v {
			tv, err := encodeValue(e)
			if err != nil {
				return taggedValue{}, err
			}
			list = append(list, tv)
		}
		return taggedValue{T: tagList, V: list}, nil
	case map[string]interface{}:
		m := make(map[string]taggedValue, len(v))
		for k, e := range v {
			tv, err := encodeValue(e)
			if err != nil {
				return taggedValue{}, err
			}
			m[k] = tv
		}
		return taggedValue{T: tagMap, V: m}, nil
	default:
		return taggedValue{}, fmt.Errorf("%w: %T", ErrInvalidValue, value)
	}
}

func decodeValue(tv taggedValue) (interface{}, error) {
	switch tv.T {
	case tagString:
		s, _ := tv.V.(string)
		return s, nil
	case tagInt:
		return int(asFloat(tv.V)), nil
	case tagLong:
		return int64(asFloat(tv.V)), nil
	case tagFloat:
		return float32(asFloat(tv.V)), nil
	case tagDouble:
		return asFloat(tv.V), nil
	case tagBig:
		s, _ := tv.V.(string)
		f, _, err := big.ParseFloat(s, 10, 128, big.ToNearestEven)
		if err != nil {
			return nil, err
		}
		return f, nil
	case tagBool:
		b, _ := tv.V.(bool)
		return b, nil
	case tagTime:
		s, _ := tv.V.(string)
		return time.Parse(time.RFC3339Nano, s)
	case tagBytes:
		s, _ := tv.V.(string)
		return base64.StdEncoding.DecodeString(s)
	case tagList:
		return decodeNested(tv.V, true)
	case tagMap:
		return decodeNested(tv.V, false)
	default:
		return nil, fmt.Errorf("unknown value tag %q", tv.T)
	}
}

// decodeNested re-decodes nested lists and maps. The nested envelope arrives
// as generic JSON after Unmarshal, so every element is round-tripped through
// the taggedValue form again.
func decodeNested(raw interface{}, isList bool) (interface{}, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	if isList {
		var tagged []taggedValue
		if err := json.Unmarshal(data, &tagged); err != nil {
			return nil, err
		}
		list := make([]interface{}, 0, len(tagged))
		for _, tv := range tagged {
			v, err := decodeValue(tv)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	}
	var tagged map[string]taggedValue
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	m := make(map[string]interface{}, len(tagged))
	for k, tv := range tagged {
		v, err := decodeValue(tv)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
