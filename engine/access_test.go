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

package engine

import (
	"testing"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/test/assert"
	"github.com/rulego/docflow/text"
)

func newTestResolver(caller string) *accessResolver {
	config := types.NewConfig(types.WithLogger(types.DiscardLogger()))
	return newAccessResolver(caller, text.NewAdapter(config))
}

func TestUpdateACLWithoutAnnotationKeepsLists(t *testing.T) {
	resolver := newTestResolver("anna")
	workitem := document.New().WithItem(document.ItemReadAccess, []string{"joe"})
	event := document.New()
	task := document.New()

	assert.Nil(t, resolver.UpdateACL(workitem, event, task))
	assert.Equal(t, []string{"joe"}, workitem.GetItemValueList(document.ItemReadAccess))
}

func TestUpdateACLEventWinsOverTask(t *testing.T) {
	resolver := newTestResolver("anna")
	workitem := document.New()

	event := document.New().
		WithItem(itemUpdateACL, true).
		WithItem(itemAddWriteNames, "eventwriter")
	task := document.New().
		WithItem(itemUpdateACL, true).
		WithItem(itemAddWriteNames, "taskwriter")

	// 事件注解优先，从不跨事件和任务合并
	assert.Nil(t, resolver.UpdateACL(workitem, event, task))
	assert.Equal(t, []string{"eventwriter"}, workitem.GetItemValueList(document.ItemWriteAccess))
}

func TestUpdateACLFieldsAndInlineLists(t *testing.T) {
	resolver := newTestResolver("anna")
	workitem := document.New().
		WithItem("namteam", []string{"joe", "sam"}).
		WithItem(document.ItemReadAccess, []string{"stale"})

	task := document.New().
		WithItem(itemUpdateACL, true).
		WithItem(itemAddReadNames, "manager").
		WithItem(itemAddReadFields, []string{"namteam", "[guest,joe]"})

	assert.Nil(t, resolver.UpdateACL(workitem, nil, task))
	// 字段值并入，内联列表展开，去重保持首次出现，替换而不是合并
	assert.Equal(t, []string{"manager", "joe", "sam", "guest"},
		workitem.GetItemValueList(document.ItemReadAccess))
}

func TestUpdateACLOwnership(t *testing.T) {
	resolver := newTestResolver("anna")
	workitem := document.New().
		WithItem(document.ItemOwner, []string{"previous"}).
		WithItem("namresponsible", "sam")

	task := document.New().
		WithItem(itemUpdateACL, true).
		WithItem(itemOwnershipNames, "joe").
		WithItem(itemOwnershipFields, "namresponsible")

	assert.Nil(t, resolver.UpdateACL(workitem, nil, task))
	assert.Equal(t, []string{"joe", "sam"}, workitem.GetItemValueList(document.ItemOwner))
	// 镜像到废弃的namowner
	assert.Equal(t, []string{"joe", "sam"}, workitem.GetItemValueList("namowner"))
}

func TestUpdateACLResolvesDynamicNames(t *testing.T) {
	resolver := newTestResolver("anna")
	workitem := document.New().WithItem("namteam", []string{"joe", "sam"})

	task := document.New().
		WithItem(itemUpdateACL, true).
		WithItem(itemAddWriteNames, "<itemvalue>namteam</itemvalue>")

	assert.Nil(t, resolver.UpdateACL(workitem, nil, task))
	assert.Equal(t, []string{"joe", "sam"}, workitem.GetItemValueList(document.ItemWriteAccess))
}

func TestUpdateACLIsIdempotent(t *testing.T) {
	resolver := newTestResolver("anna")
	workitem := document.New().WithItem("namteam", []string{"joe"})
	task := document.New().
		WithItem(itemUpdateACL, true).
		WithItem(itemAddReadNames, "manager").
		WithItem(itemAddWriteFields, "namteam").
		WithItem(itemOwnershipNames, "joe")

	assert.Nil(t, resolver.UpdateACL(workitem, nil, task))
	first := workitem.Clone()

	// 模型和工作项不变时重复执行产生相同结果
	assert.Nil(t, resolver.UpdateACL(workitem, nil, task))
	assert.Equal(t, first.GetItemValueList(document.ItemReadAccess), workitem.GetItemValueList(document.ItemReadAccess))
	assert.Equal(t, first.GetItemValueList(document.ItemWriteAccess), workitem.GetItemValueList(document.ItemWriteAccess))
	assert.Equal(t, first.GetItemValueList(document.ItemOwner), workitem.GetItemValueList(document.ItemOwner))
}

func TestUpdateParticipantsAppendOnly(t *testing.T) {
	resolver := newTestResolver("anna")
	workitem := document.New()

	resolver.UpdateParticipants(workitem)
	resolver.UpdateParticipants(workitem)
	assert.Equal(t, []string{"anna"}, workitem.GetItemValueList(document.ItemParticipants))

	other := newTestResolver("joe")
	other.UpdateParticipants(workitem)
	assert.Equal(t, []string{"anna", "joe"}, workitem.GetItemValueList(document.ItemParticipants))
}

func TestMergeFieldList(t *testing.T) {
	workitem := document.New().WithItem("namteam", []string{"joe", "sam"})

	result := MergeFieldList(workitem, []string{"base"}, []string{"namteam", "{a,b}"})
	assert.Equal(t, []string{"base", "joe", "sam", "a", "b"}, result)

	// 缺失字段为空
	result = MergeFieldList(workitem, nil, []string{"missing"})
	assert.Equal(t, 0, len(result))
}

func TestUniqueList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, UniqueList([]string{"a", "b", "a", "", "b"}))
}
