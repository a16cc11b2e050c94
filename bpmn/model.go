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

// Package bpmn holds the versioned BPMN model graph, the XML parser and the
// model manager. Tasks and events are exposed to the rest of the engine as
// plain attribute bags; the graph structure (sequence flows, gateways) stays
// internal to this package and is walked through the Model methods.
//
// Package bpmn 承载按版本索引的BPMN模型图、XML解析器和模型管理器。
package bpmn

import (
	"fmt"
	"sort"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// 任务与事件属性条目名
const (
	ItemProcessID      = "numprocessid"
	ItemActivityID     = "numactivityid"
	ItemNextProcessID  = "numnextprocessid"
	ItemNextActivityID = "numnextactivityid"
	ItemFollowUp       = "keyfollowup"
	ItemName           = "txtname"
	ItemGroup          = "txtworkflowgroup"
	ItemStatus         = "txtworkflowstatus"
	ItemElementID      = "bpmn.elementid"
	ItemDataObjects    = "dataobjects"
)

// node 内部图节点
type node struct {
	kind        string
	gatewayKind string
	entity      *document.ItemCollection
}

// flow 内部顺序流
type flow struct {
	targetID  string
	condition string
	isDefault bool
}

// Model 单个版本的BPMN模型
// Immutable after parsing; safe for concurrent reads.
type Model struct {
	version    string
	definition *document.ItemCollection
	tasks      map[int]*document.ItemCollection
	events     map[int]map[int]*document.ItemCollection
	// taskOrder 保持模型声明顺序
	taskOrder []int
	nodes     map[string]*node
	flows     map[string][]flow
	groups    map[string]struct{}
}

var _ types.Model = (*Model)(nil)

// Version 模型版本
func (m *Model) Version() string {
	return m.version
}

// Definition 模型概要：版本和分组
func (m *Model) Definition() *document.ItemCollection {
	return m.definition
}

// GetTask 按ID查找任务
func (m *Model) GetTask(taskID int) (*document.ItemCollection, error) {
	if task, ok := m.tasks[taskID]; ok {
		return task, nil
	}
	return nil, types.NewModelError("model", types.CodeUndefinedTask,
		fmt.Sprintf("task %d not defined in model '%s'", taskID, m.version))
}

// GetEvent 按 (taskID, eventID) 查找事件
func (m *Model) GetEvent(taskID int, eventID int) (*document.ItemCollection, error) {
	if events, ok := m.events[taskID]; ok {
		if event, ok := events[eventID]; ok {
			return event, nil
		}
	}
	return nil, types.NewModelError("model", types.CodeUndefinedEvent,
		fmt.Sprintf("event %d.%d not defined in model '%s'", taskID, eventID, m.version))
}

// FindAllEventsByTask 查找任务的全部事件，按事件ID排序
func (m *Model) FindAllEventsByTask(taskID int) []*document.ItemCollection {
	events := m.events[taskID]
	ids := make([]int, 0, len(events))
	for id := range events {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	result := make([]*document.ItemCollection, 0, len(ids))
	for _, id := range ids {
		result = append(result, events[id])
	}
	return result
}

// FindTasksByGroup 查找工作流分组的全部任务，保持模型声明顺序
func (m *Model) FindTasksByGroup(group string) []*document.ItemCollection {
	var result []*document.ItemCollection
	for _, id := range m.taskOrder {
		task := m.tasks[id]
		if task.GetItemValueString(ItemGroup) == group {
			result = append(result, task)
		}
	}
	return result
}

// GetDataObject 返回与元素关联的DataObject内容
func (m *Model) GetDataObject(element *document.ItemCollection, name string) (string, bool) {
	if element == nil {
		return "", false
	}
	for _, v := range element.GetItemValue(ItemDataObjects) {
		pair, ok := v.([]interface{})
		if !ok || len(pair) < 2 {
			continue
		}
		if n, ok := pair[0].(string); ok && n == name {
			content, _ := pair[1].(string)
			return content, true
		}
	}
	return "", false
}

// SuccessorOf resolves the element the event's outgoing path points at. An
// explicit sequence flow wins; without one the numnextprocessid attribute
// names the successor task.
func (m *Model) SuccessorOf(event *document.ItemCollection) (*types.FlowTarget, error) {
	if event == nil {
		return nil, types.NewModelError("model", types.CodeUndefinedEvent, "event is nil")
	}
	elementID := event.GetItemValueString(ItemElementID)
	if flows := m.flows[elementID]; len(flows) > 0 {
		return m.target(flows[0].targetID)
	}
	if event.HasItem(ItemNextProcessID) {
		nextTaskID := event.GetItemValueInteger(ItemNextProcessID)
		task, err := m.GetTask(nextTaskID)
		if err != nil {
			return nil, err
		}
		return &types.FlowTarget{
			Kind:      types.ElementTask,
			ElementID: task.GetItemValueString(ItemElementID),
			Task:      task,
		}, nil
	}
	return nil, types.NewModelError("model", types.CodeInvalidModelEntry,
		fmt.Sprintf("event %s has no outgoing path", event.GetItemValueString(ItemElementID)))
}

// OutgoingEdges 返回网关元素的出边，保持模型声明顺序
func (m *Model) OutgoingEdges(elementID string) []types.FlowEdge {
	flows := m.flows[elementID]
	edges := make([]types.FlowEdge, 0, len(flows))
	for _, f := range flows {
		target, err := m.target(f.targetID)
		if err != nil {
			continue
		}
		edges = append(edges, types.FlowEdge{
			Condition: f.condition,
			IsDefault: f.isDefault,
			Target:    target,
		})
	}
	return edges
}

// target 解析元素ID为流程走查目标
func (m *Model) target(elementID string) (*types.FlowTarget, error) {
	n, ok := m.nodes[elementID]
	if !ok {
		return nil, types.NewModelError("model", types.CodeInvalidModelEntry,
			fmt.Sprintf("dangling sequence flow target '%s'", elementID))
	}
	target := &types.FlowTarget{Kind: n.kind, ElementID: elementID, GatewayKind: n.gatewayKind}
	switch n.kind {
	case types.ElementTask:
		target.Task = n.entity
	case types.ElementEvent:
		target.Event = n.entity
	}
	return target, nil
}
