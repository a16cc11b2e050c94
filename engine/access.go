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
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/text"
	"github.com/rulego/docflow/utils/str"
)

// ACL模型注解条目名
const (
	itemUpdateACL       = "keyupdateacl"
	itemAddReadNames    = "namaddreadaccess"
	itemAddWriteNames   = "namaddwriteaccess"
	itemAddReadFields   = "keyaddreadfields"
	itemAddWriteFields  = "keyaddwritefields"
	itemOwnershipNames  = "namownershipnames"
	itemOwnershipFields = "keyownershipfields"
)

// accessResolver recomputes $readAccess, $writeAccess, $owner and
// $participants from the model annotations of the processed event and the
// next task.
type accessResolver struct {
	caller  string
	adapter *text.Adapter
}

func newAccessResolver(caller string, adapter *text.Adapter) *accessResolver {
	return &accessResolver{caller: caller, adapter: adapter}
}

// UpdateACL applies the ACL annotations. If neither the event nor the next
// task requests an ACL update the lists stay untouched. The annotation
// source is the event when it carries keyupdateacl=true, otherwise the next
// task; annotations never merge across event and task.
func (r *accessResolver) UpdateACL(workitem, event, nextTask *document.ItemCollection) error {
	var source *document.ItemCollection
	switch {
	case event != nil && event.GetItemValueBoolean(itemUpdateACL):
		source = event
	case nextTask != nil && nextTask.GetItemValueBoolean(itemUpdateACL):
		source = nextTask
	default:
		return nil
	}

	readAccess, err := r.resolveAnnotation(workitem, source, itemAddReadNames, itemAddReadFields)
	if err != nil {
		return err
	}
	writeAccess, err := r.resolveAnnotation(workitem, source, itemAddWriteNames, itemAddWriteFields)
	if err != nil {
		return err
	}
	owner, err := r.resolveAnnotation(workitem, source, itemOwnershipNames, itemOwnershipFields)
	if err != nil {
		return err
	}

	// 替换而不是合并
	_ = workitem.SetItemValue(document.ItemReadAccess, readAccess)
	_ = workitem.SetItemValue(document.ItemWriteAccess, writeAccess)
	_ = workitem.SetItemValue(document.ItemOwner, owner)
	return nil
}

// resolveAnnotation resolves one (names, fields) annotation pair into a
// de-duplicated access list.
func (r *accessResolver) resolveAnnotation(workitem, source *document.ItemCollection, namesItem, fieldsItem string) ([]string, error) {
	var result []string
	for _, name := range source.GetItemValueList(namesItem) {
		// 名字先经过文本替换，可能展开成列表
		expanded, err := r.adapter.AdaptTextList(name, workitem)
		if err != nil {
			return nil, err
		}
		result = append(result, expanded...)
	}
	result = MergeFieldList(workitem, result, source.GetItemValueList(fieldsItem))
	return str.Unique(result), nil
}

// UpdateParticipants appends the caller identity to the append-only
// $participants set.
func (r *accessResolver) UpdateParticipants(workitem *document.ItemCollection) {
	if r.caller == "" {
		return
	}
	participants := workitem.GetItemValueList(document.ItemParticipants)
	for _, p := range participants {
		if p == r.caller {
			return
		}
	}
	_ = workitem.AppendItemValue(document.ItemParticipants, r.caller)
}

// MergeFieldList appends the current values of the named workitem items to
// the value list. A field spec in square or curly brackets denotes a literal
// inline list.
func MergeFieldList(workitem *document.ItemCollection, valueList []string, fieldList []string) []string {
	result := append([]string(nil), valueList...)
	for _, field := range fieldList {
		if literals, ok := str.ParseInlineList(field); ok {
			result = append(result, literals...)
			continue
		}
		result = append(result, workitem.GetItemValueList(field)...)
	}
	return result
}

// UniqueList de-duplicates an access list preserving the first occurrence
// and dropping empty strings.
func UniqueList(values []string) []string {
	return str.Unique(values)
}
