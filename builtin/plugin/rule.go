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
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/rule"
)

// ItemBusinessRule 事件脚本条目名
const ItemBusinessRule = "txtbusinessrule"

// RulePlugin executes the business rule script attached to the event. The
// script's result bag is merged onto the workitem.
type RulePlugin struct {
	engine *rule.Engine
}

var _ types.Plugin = (*RulePlugin)(nil)

// Init 插件初始化
func (p *RulePlugin) Init(ctx types.WorkflowContext) error {
	p.engine = rule.NewEngine(ctx.Config())
	return nil
}

// Run 处理工作项
func (p *RulePlugin) Run(workitem, event *document.ItemCollection) (*document.ItemCollection, error) {
	script := event.GetItemValueString(ItemBusinessRule)
	if script == "" {
		return workitem, nil
	}
	return p.engine.RunScript(script, workitem, event)
}

// Close 无资源需要释放
func (p *RulePlugin) Close(rollback bool) error {
	return nil
}
