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

// Package plugin provides the builtin process step plugins: ownership
// defaulting, history log, rule script execution, activity result parsing
// and mail composition.
//
// Package plugin 提供内置流程步骤插件。
package plugin

import (
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// OwnerPlugin ensures every workitem leaves the step with an owner. A
// workitem without $owner is assigned to the caller; the deprecated
// namowner item mirrors automatically.
type OwnerPlugin struct {
	ctx types.WorkflowContext
}

var _ types.Plugin = (*OwnerPlugin)(nil)

// Init 插件初始化
func (p *OwnerPlugin) Init(ctx types.WorkflowContext) error {
	p.ctx = ctx
	return nil
}

// Run 处理工作项
func (p *OwnerPlugin) Run(workitem, event *document.ItemCollection) (*document.ItemCollection, error) {
	if workitem.IsItemEmpty(document.ItemOwner) && p.ctx.Caller() != "" {
		if err := workitem.SetItemValue(document.ItemOwner, p.ctx.Caller()); err != nil {
			return nil, types.NewPluginError("owner", types.CodeProcessingError, err.Error())
		}
	}
	// $creator 只在首次处理时补写
	if workitem.IsItemEmpty(document.ItemCreator) && p.ctx.Caller() != "" {
		_ = workitem.SetItemValue(document.ItemCreator, p.ctx.Caller())
	}
	return workitem, nil
}

// Close 无资源需要释放
func (p *OwnerPlugin) Close(rollback bool) error {
	return nil
}
