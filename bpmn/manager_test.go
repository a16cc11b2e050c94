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

package bpmn

import (
	"strings"
	"testing"

	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/test/assert"
)

func modelWithVersion(t *testing.T, version string) *Model {
	t.Helper()
	xml := strings.Replace(ticketModel, `version="1.0.0"`, `version="`+version+`"`, 1)
	model, err := Parse([]byte(xml))
	assert.Nil(t, err)
	return model
}

func TestModelManagerExactMatch(t *testing.T) {
	mm := NewModelManager()
	assert.Nil(t, mm.AddModel(modelWithVersion(t, "1.0.0")))
	assert.Nil(t, mm.AddModel(modelWithVersion(t, "1.1.0")))

	model, err := mm.GetModel("1.0.0")
	assert.Nil(t, err)
	assert.Equal(t, "1.0.0", model.Version())

	_, err = mm.GetModel("9.9.9")
	assert.NotNil(t, err)

	mm.RemoveModel("1.0.0")
	_, err = mm.GetModel("1.0.0")
	assert.NotNil(t, err)
}

func TestModelManagerRegexMatch(t *testing.T) {
	mm := NewModelManager()
	_ = mm.AddModel(modelWithVersion(t, "1.0.0"))
	_ = mm.AddModel(modelWithVersion(t, "1.1.0"))
	_ = mm.AddModel(modelWithVersion(t, "2.0.0"))

	// 正则匹配取最高排序的版本
	workitem := document.New().WithModelVersion("^1\\.")
	model, err := mm.GetModelByWorkitem(workitem)
	assert.Nil(t, err)
	assert.Equal(t, "1.1.0", model.Version())

	workitem = document.New().WithModelVersion("(^2\\.0)")
	model, err = mm.GetModelByWorkitem(workitem)
	assert.Nil(t, err)
	assert.Equal(t, "2.0.0", model.Version())

	workitem = document.New().WithModelVersion("^7\\.")
	_, err = mm.GetModelByWorkitem(workitem)
	assert.NotNil(t, err)
}

func TestModelManagerGroupFallback(t *testing.T) {
	mm := NewModelManager()
	_ = mm.AddModel(modelWithVersion(t, "1.0.0"))
	_ = mm.AddModel(modelWithVersion(t, "1.2.0"))

	// 版本缺失时按工作流分组解析最高版本
	workitem := document.New().WithItem(document.ItemWorkflowGroup, "Ticket")
	model, err := mm.GetModelByWorkitem(workitem)
	assert.Nil(t, err)
	assert.Equal(t, "1.2.0", model.Version())

	workitem = document.New().WithItem(document.ItemWorkflowGroup, "Invoice")
	_, err = mm.GetModelByWorkitem(workitem)
	assert.NotNil(t, err)
}
