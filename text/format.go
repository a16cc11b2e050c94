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

package text

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// 日期模式字母映射（模板沿用报表历史上的模式字母）
var datePatternReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MMMM", "January",
	"MMM", "Jan",
	"MM", "01",
	"dd", "02",
	"EEEE", "Monday",
	"EEE", "Mon",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// 德语月份与星期名
var germanNames = strings.NewReplacer(
	"January", "Januar", "February", "Februar", "March", "März",
	"May", "Mai", "June", "Juni", "July", "Juli",
	"October", "Oktober", "December", "Dezember",
	"Monday", "Montag", "Tuesday", "Dienstag", "Wednesday", "Mittwoch",
	"Thursday", "Donnerstag", "Friday", "Freitag",
	"Saturday", "Samstag", "Sunday", "Sonntag",
	"Mar", "Mär", "Oct", "Okt", "Dec", "Dez",
)

// FormatItemValues formats an item value list. With a separator all values
// are joined; otherwise only the value at the given position (first by
// default, or last) is emitted. A timestamp first value makes format a date
// pattern; a format containing '#' is treated as a decimal pattern;
// otherwise values stringify as-is.
func FormatItemValues(values []interface{}, separator, format, locale, position string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	if separator != "" {
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, formatValue(v, format, locale))
		}
		return strings.Join(parts, separator), nil
	}
	index := 0
	if strings.EqualFold(position, "last") {
		index = len(values) - 1
	}
	return formatValue(values[index], format, locale), nil
}

func formatValue(value interface{}, format, locale string) string {
	if t, ok := value.(time.Time); ok {
		if format == "" {
			return t.Format(time.RFC3339)
		}
		formatted := t.Format(datePatternReplacer.Replace(format))
		if strings.HasPrefix(strings.ToLower(locale), "de") {
			formatted = germanNames.Replace(formatted)
		}
		return formatted
	}
	if format != "" && strings.Contains(format, "#") {
		return formatNumber(value, format)
	}
	return stringify(value)
}

// formatNumber applies a decimal pattern like "#,###.00". The pattern
// decides the fraction digits and whether thousands are grouped.
func formatNumber(value interface{}, pattern string) string {
	f, ok := asFloat(value)
	if !ok {
		return stringify(value)
	}
	decimals := 0
	if dot := strings.LastIndex(pattern, "."); dot >= 0 {
		decimals = len(pattern) - dot - 1
	}
	formatted := strconv.FormatFloat(f, 'f', decimals, 64)
	if strings.Contains(pattern, ",") {
		formatted = groupThousands(formatted)
	}
	return formatted
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if dot := strings.Index(s, "."); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}
	var sb strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sign + sb.String() + fracPart
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case *big.Float:
		f, _ := v.Float64()
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
