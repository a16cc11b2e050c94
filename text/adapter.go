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

// Package text resolves the <itemvalue>, <date> and <propertyvalue>
// directives embedded in subject, body and report templates.
//
// Package text 解析主题、正文和报表模板中的动态指令。
package text

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

var (
	itemValueRegex = regexp.MustCompile(`(?s)<itemvalue([^>]*)>(.*?)</itemvalue>`)
	propertyRegex  = regexp.MustCompile(`(?s)<propertyvalue([^>]*)>(.*?)</propertyvalue>`)
	dateTagRegex   = regexp.MustCompile(`<date([^>/]*)/?>`)
	attrRegex      = regexp.MustCompile(`([\w_]+)\s*=\s*("([^"]*)"|[\w,+-]+)`)
)

// Adapter 文本替换适配器
type Adapter struct {
	config types.Config
	// now 允许测试固定时钟
	now func() time.Time
}

// NewAdapter 创建文本替换适配器
func NewAdapter(config types.Config) *Adapter {
	return &Adapter{config: config, now: time.Now}
}

// ReplaceDynamicValues resolves all directives of the template against the
// workitem. The <date> tag is pre-expanded to a yyyyMMdd literal before the
// surrounding template is processed.
func (a *Adapter) ReplaceDynamicValues(text string, workitem *document.ItemCollection) (string, error) {
	text = a.expandDateTags(text)
	text = a.expandProperties(text)
	return a.expandItemValues(text, workitem)
}

// AdaptTextList resolves a template into a value list. A template that is a
// single <itemvalue> directive expands to all values of the item; any other
// template yields a single element list.
func (a *Adapter) AdaptTextList(text string, workitem *document.ItemCollection) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if match := itemValueRegex.FindStringSubmatch(trimmed); match != nil && itemValueRegex.FindString(trimmed) == trimmed {
		itemName := strings.TrimSpace(match[2])
		return workitem.GetItemValueList(itemName), nil
	}
	resolved, err := a.ReplaceDynamicValues(text, workitem)
	if err != nil {
		return nil, err
	}
	return []string{resolved}, nil
}

// expandItemValues 替换 <itemvalue> 指令
func (a *Adapter) expandItemValues(text string, workitem *document.ItemCollection) (string, error) {
	var firstErr error
	result := itemValueRegex.ReplaceAllStringFunc(text, func(tag string) string {
		match := itemValueRegex.FindStringSubmatch(tag)
		attrs := parseAttributes(match[1])
		itemName := strings.TrimSpace(match[2])
		formatted, err := FormatItemValues(
			workitem.GetItemValue(itemName),
			attrs["separator"],
			attrs["format"],
			attrs["locale"],
			attrs["position"],
		)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return formatted
	})
	return result, firstErr
}

// expandProperties 替换 <propertyvalue> 指令
func (a *Adapter) expandProperties(text string) string {
	return propertyRegex.ReplaceAllStringFunc(text, func(tag string) string {
		match := propertyRegex.FindStringSubmatch(tag)
		key := strings.TrimSpace(match[2])
		return a.config.Properties[key]
	})
}

// expandDateTags pre-expands every <date .../> tag to a yyyyMMdd literal
// evaluated relative to now. Used in report query strings.
func (a *Adapter) expandDateTags(text string) string {
	return dateTagRegex.ReplaceAllStringFunc(text, func(tag string) string {
		match := dateTagRegex.FindStringSubmatch(tag)
		return a.resolveDateTag(parseAttributes(match[1]))
	})
}

// resolveDateTag 求值单个 <date> 标签
func (a *Adapter) resolveDateTag(attrs map[string]string) string {
	now := a.now()
	year, month, day := now.Date()

	if v, ok := attrs["year"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			year = n
		}
	}
	if v, ok := attrs["month"]; ok {
		if strings.EqualFold(v, "actual_maximum") {
			month = time.December
		} else if n, err := strconv.Atoi(v); err == nil {
			month = time.Month(n)
		}
	}
	result := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	if v, ok := attrs["day_of_month"]; ok {
		if strings.EqualFold(v, "actual_maximum") {
			// 当月最后一天
			result = time.Date(result.Year(), result.Month(), 1, 0, 0, 0, 0, result.Location()).
				AddDate(0, 1, -1)
		} else if n, err := strconv.Atoi(v); err == nil {
			result = time.Date(result.Year(), result.Month(), n, 0, 0, 0, 0, result.Location())
		}
	}
	if v, ok := attrs["day_of_year"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			result = time.Date(result.Year(), time.January, 1, 0, 0, 0, 0, result.Location()).
				AddDate(0, 0, n-1)
		}
	}
	if v, ok := attrs["add"]; ok {
		parts := strings.SplitN(v, ",", 2)
		if len(parts) == 2 {
			if offset, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
				switch strings.ToLower(strings.TrimSpace(parts[0])) {
				case "day_of_month", "day_of_year":
					result = result.AddDate(0, 0, offset)
				case "month":
					result = result.AddDate(0, offset, 0)
				case "year":
					result = result.AddDate(offset, 0, 0)
				}
			}
		}
	}
	return result.Format("20060102")
}

// parseAttributes parses KEY="value" and KEY=value pairs in any order. Keys
// are case folded.
func parseAttributes(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, match := range attrRegex.FindAllStringSubmatch(raw, -1) {
		key := strings.ToLower(match[1])
		value := match[2]
		if match[3] != "" || strings.HasPrefix(value, `"`) {
			value = match[3]
		}
		attrs[key] = value
	}
	return attrs
}
