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

// 保留工作流条目的便捷访问器。Setter 返回集合本身，支持链式调用。

// GetUniqueID returns $uniqueid.
func (ic *ItemCollection) GetUniqueID() string {
	return ic.GetItemValueString(ItemUniqueID)
}

// WithUniqueID sets $uniqueid.
func (ic *ItemCollection) WithUniqueID(id string) *ItemCollection {
	_ = ic.SetItemValue(ItemUniqueID, id)
	return ic
}

// GetTaskID returns $taskid.
func (ic *ItemCollection) GetTaskID() int {
	return ic.GetItemValueInteger(ItemTaskID)
}

// WithTaskID sets $taskid and mirrors the deprecated $processid.
func (ic *ItemCollection) WithTaskID(taskID int) *ItemCollection {
	_ = ic.SetItemValue(ItemTaskID, taskID)
	return ic
}

// GetEventID returns $eventid.
func (ic *ItemCollection) GetEventID() int {
	return ic.GetItemValueInteger(ItemEventID)
}

// WithEventID sets $eventid and mirrors the deprecated $activityid.
func (ic *ItemCollection) WithEventID(eventID int) *ItemCollection {
	_ = ic.SetItemValue(ItemEventID, eventID)
	return ic
}

// GetModelVersion returns $modelversion.
func (ic *ItemCollection) GetModelVersion() string {
	return ic.GetItemValueString(ItemModelVersion)
}

// WithModelVersion sets $modelversion.
func (ic *ItemCollection) WithModelVersion(version string) *ItemCollection {
	_ = ic.SetItemValue(ItemModelVersion, version)
	return ic
}

// GetWorkflowGroup returns $workflowgroup.
func (ic *ItemCollection) GetWorkflowGroup() string {
	return ic.GetItemValueString(ItemWorkflowGroup)
}

// GetWorkflowStatus returns $workflowstatus.
func (ic *ItemCollection) GetWorkflowStatus() string {
	return ic.GetItemValueString(ItemWorkflowStatus)
}

// GetType returns the type item.
func (ic *ItemCollection) GetType() string {
	return ic.GetItemValueString(ItemType)
}

// WithType sets the type item.
func (ic *ItemCollection) WithType(docType string) *ItemCollection {
	_ = ic.SetItemValue(ItemType, docType)
	return ic
}

// WithItem sets an arbitrary item, ignoring invalid values.
func (ic *ItemCollection) WithItem(name string, value interface{}) *ItemCollection {
	_ = ic.SetItemValue(name, value)
	return ic
}
