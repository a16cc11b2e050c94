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

package plugin

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/text"
)

// ItemActivityResult 事件结果定义条目名
const ItemActivityResult = "txtactivityresult"

var resultItemRegex = regexp.MustCompile(`(?s)<item\s+name\s*=\s*"([^"]+)"(?:\s+type\s*=\s*"([^"]+)")?\s*>(.*?)</item>`)

// ResultPlugin applies the event's activity result definition. The
// definition is a list of <item name="..">value</item> tags; values pass
// through text substitution before they are written onto the workitem. An
// empty value removes the item.
type ResultPlugin struct {
	adapter *text.Adapter
}

var _ types.Plugin = (*ResultPlugin)(nil)

// Init 插件初始化
func (p *ResultPlugin) Init(ctx types.WorkflowContext) error {
	p.adapter = text.NewAdapter(ctx.Config())
	return nil
}

// Run 处理工作项
func (p *ResultPlugin) Run(workitem, event *document.ItemCollection) (*document.ItemCollection, error) {
	definition := event.GetItemValueString(ItemActivityResult)
	if definition == "" {
		return workitem, nil
	}
	resolved, err := p.adapter.ReplaceDynamicValues(definition, workitem)
	if err != nil {
		return nil, err
	}
	for _, match := range resultItemRegex.FindAllStringSubmatch(resolved, -1) {
		name, itemType, raw := match[1], match[2], strings.TrimSpace(match[3])
		if raw == "" {
			workitem.RemoveItem(name)
			continue
		}
		if err := workitem.SetItemValue(name, convertResultValue(raw, itemType)); err != nil {
			return nil, types.NewPluginError("result", types.CodeProcessingError, err.Error())
		}
	}
	return workitem, nil
}

// Close 无资源需要释放
func (p *ResultPlugin) Close(rollback bool) error {
	return nil
}

// convertResultValue 按type属性转换值
func convertResultValue(raw, itemType string) interface{} {
	switch strings.ToLower(itemType) {
	case "integer":
		n, _ := strconv.Atoi(raw)
		return n
	case "double":
		f, _ := strconv.ParseFloat(raw, 64)
		return f
	case "boolean":
		return strings.EqualFold(raw, "true")
	default:
		return raw
	}
}
