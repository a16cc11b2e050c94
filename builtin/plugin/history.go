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
	"fmt"
	"time"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

const (
	// ItemWorkflowHistory 历史日志条目名
	ItemWorkflowHistory = "txtworkflowhistory"
	// itemHistoryLength 事件可选的历史长度上限条目
	itemHistoryLength = "numworkflowhistorylength"

	defaultHistoryLength = 100
)

// HistoryPlugin appends one line per process step to the workitem history
// log. The log is bounded; the oldest entries fall off first.
type HistoryPlugin struct {
	ctx types.WorkflowContext
}

var _ types.Plugin = (*HistoryPlugin)(nil)

// Init 插件初始化
func (p *HistoryPlugin) Init(ctx types.WorkflowContext) error {
	p.ctx = ctx
	return nil
}

// Run 处理工作项
func (p *HistoryPlugin) Run(workitem, event *document.ItemCollection) (*document.ItemCollection, error) {
	entry := fmt.Sprintf("%s|%s|%s",
		time.Now().Format(time.RFC3339),
		event.GetItemValueString("txtname"),
		p.ctx.Caller(),
	)
	history := workitem.GetItemValueList(ItemWorkflowHistory)
	history = append(history, entry)

	maxLength := event.GetItemValueInteger(itemHistoryLength)
	if maxLength <= 0 {
		maxLength = defaultHistoryLength
	}
	if len(history) > maxLength {
		history = history[len(history)-maxLength:]
	}
	if err := workitem.SetItemValue(ItemWorkflowHistory, history); err != nil {
		return nil, types.NewPluginError("history", types.CodeProcessingError, err.Error())
	}
	return workitem, nil
}

// Close 无资源需要释放
func (p *HistoryPlugin) Close(rollback bool) error {
	return nil
}
