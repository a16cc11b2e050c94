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
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// BPMN 2.0 XML 结构，带工作流属性扩展。元素按本地名匹配，与命名空间前缀无关。

type xmlDefinitions struct {
	Version string     `xml:"version,attr"`
	Name    string     `xml:"name,attr"`
	Process xmlProcess `xml:"process"`
}

type xmlProcess struct {
	Tasks             []xmlTask    `xml:"task"`
	Events            []xmlEvent   `xml:"intermediateCatchEvent"`
	ExclusiveGateways []xmlGateway `xml:"exclusiveGateway"`
	InclusiveGateways []xmlGateway `xml:"inclusiveGateway"`
	Flows             []xmlFlow    `xml:"sequenceFlow"`
}

type xmlItem struct {
	Name   string   `xml:"name,attr"`
	Values []string `xml:"value"`
}

type xmlDataObject struct {
	Name    string `xml:"name,attr"`
	Content string `xml:",chardata"`
}

type xmlTask struct {
	ID          string          `xml:"id,attr"`
	Name        string          `xml:"name,attr"`
	ProcessID   int             `xml:"numprocessid,attr"`
	Items       []xmlItem       `xml:"extensionElements>item"`
	DataObjects []xmlDataObject `xml:"dataObject"`
}

type xmlEvent struct {
	ID            string          `xml:"id,attr"`
	Name          string          `xml:"name,attr"`
	ProcessID     int             `xml:"numprocessid,attr"`
	ActivityID    int             `xml:"numactivityid,attr"`
	NextProcessID string          `xml:"numnextprocessid,attr"`
	Items         []xmlItem       `xml:"extensionElements>item"`
	DataObjects   []xmlDataObject `xml:"dataObject"`
}

type xmlGateway struct {
	ID      string `xml:"id,attr"`
	Name    string `xml:"name,attr"`
	Default string `xml:"default,attr"`
}

type xmlFlow struct {
	ID        string `xml:"id,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
	Condition string `xml:"conditionExpression"`
}

// Parse consumes BPMN XML bytes and builds the indexed model graph.
// Validation failures raise a ModelError with code INVALID_MODEL_ENTRY
// naming the offending element.
func Parse(data []byte) (*Model, error) {
	var defs xmlDefinitions
	if err := xml.Unmarshal(data, &defs); err != nil {
		return nil, types.NewModelError("parser", types.CodeInvalidModelEntry, err.Error())
	}
	if strings.TrimSpace(defs.Version) == "" {
		return nil, types.NewModelError("parser", types.CodeInvalidModelEntry, "definitions element carries no version")
	}

	m := &Model{
		version: defs.Version,
		tasks:   make(map[int]*document.ItemCollection),
		events:  make(map[int]map[int]*document.ItemCollection),
		nodes:   make(map[string]*node),
		flows:   make(map[string][]flow),
		groups:  make(map[string]struct{}),
	}

	for _, t := range defs.Process.Tasks {
		if t.ProcessID <= 0 {
			return nil, invalidEntry(t.ID, "task carries no numeric numprocessid")
		}
		if _, exists := m.tasks[t.ProcessID]; exists {
			return nil, invalidEntry(t.ID, fmt.Sprintf("duplicate task id %d", t.ProcessID))
		}
		entity := document.New().
			WithItem(ItemProcessID, t.ProcessID).
			WithItem(ItemName, t.Name).
			WithItem(ItemElementID, t.ID)
		applyItems(entity, t.Items)
		applyDataObjects(entity, t.DataObjects)
		group := entity.GetItemValueString(ItemGroup)
		if group == "" {
			return nil, invalidEntry(t.ID, "task carries no workflow group")
		}
		m.groups[group] = struct{}{}
		m.tasks[t.ProcessID] = entity
		m.taskOrder = append(m.taskOrder, t.ProcessID)
		m.nodes[t.ID] = &node{kind: types.ElementTask, entity: entity}
	}

	for _, e := range defs.Process.Events {
		if e.ProcessID <= 0 || e.ActivityID <= 0 {
			return nil, invalidEntry(e.ID, "event carries no numprocessid/numactivityid")
		}
		if _, ok := m.tasks[e.ProcessID]; !ok {
			return nil, invalidEntry(e.ID, fmt.Sprintf("event references undefined task %d", e.ProcessID))
		}
		if _, exists := m.events[e.ProcessID][e.ActivityID]; exists {
			return nil, invalidEntry(e.ID, fmt.Sprintf("duplicate event id %d.%d", e.ProcessID, e.ActivityID))
		}
		entity := document.New().
			WithItem(ItemProcessID, e.ProcessID).
			WithItem(ItemActivityID, e.ActivityID).
			WithItem(ItemName, e.Name).
			WithItem(ItemElementID, e.ID)
		if strings.TrimSpace(e.NextProcessID) != "" {
			entity.WithItem(ItemNextProcessID, atoi(e.NextProcessID))
		}
		applyItems(entity, e.Items)
		applyDataObjects(entity, e.DataObjects)
		if m.events[e.ProcessID] == nil {
			m.events[e.ProcessID] = make(map[int]*document.ItemCollection)
		}
		m.events[e.ProcessID][e.ActivityID] = entity
		m.nodes[e.ID] = &node{kind: types.ElementEvent, entity: entity}
	}

	defaultFlows := make(map[string]string)
	for _, g := range defs.Process.ExclusiveGateways {
		m.nodes[g.ID] = &node{kind: types.ElementGateway, gatewayKind: types.GatewayExclusive}
		defaultFlows[g.ID] = g.Default
	}
	for _, g := range defs.Process.InclusiveGateways {
		m.nodes[g.ID] = &node{kind: types.ElementGateway, gatewayKind: types.GatewayInclusive}
		defaultFlows[g.ID] = g.Default
	}

	for _, f := range defs.Process.Flows {
		if _, ok := m.nodes[f.SourceRef]; !ok {
			return nil, invalidEntry(f.ID, fmt.Sprintf("sequence flow source '%s' not defined", f.SourceRef))
		}
		if _, ok := m.nodes[f.TargetRef]; !ok {
			return nil, invalidEntry(f.ID, fmt.Sprintf("sequence flow target '%s' not defined", f.TargetRef))
		}
		m.flows[f.SourceRef] = append(m.flows[f.SourceRef], flow{
			targetID:  f.TargetRef,
			condition: strings.TrimSpace(f.Condition),
			isDefault: defaultFlows[f.SourceRef] == f.ID && f.ID != "",
		})
	}

	if err := m.validateGraph(); err != nil {
		return nil, err
	}

	groups := make([]string, 0, len(m.groups))
	for g := range m.groups {
		groups = append(groups, g)
	}
	m.definition = document.New().
		WithModelVersion(defs.Version).
		WithItem(ItemName, defs.Name).
		WithItem("txtworkflowgroups", groups)
	return m, nil
}

// validateGraph checks that every event terminates in a task and that
// gateways carry a default edge. The walk keeps a visited set so malformed
// cyclic models fail at parse time instead of looping the kernel.
func (m *Model) validateGraph() error {
	for taskID, events := range m.events {
		for eventID, event := range events {
			visited := make(map[string]struct{})
			if err := m.walkToTask(event, visited); err != nil {
				return types.NewModelError("parser", types.CodeInvalidModelEntry,
					fmt.Sprintf("event %d.%d: %s", taskID, eventID, err.Error()))
			}
		}
	}
	return nil
}

func (m *Model) walkToTask(event *document.ItemCollection, visited map[string]struct{}) error {
	target, err := m.SuccessorOf(event)
	if err != nil {
		return err
	}
	return m.walkTarget(target, visited)
}

func (m *Model) walkTarget(target *types.FlowTarget, visited map[string]struct{}) error {
	if _, seen := visited[target.ElementID]; seen {
		return fmt.Errorf("cyclic path at element '%s'", target.ElementID)
	}
	visited[target.ElementID] = struct{}{}
	switch target.Kind {
	case types.ElementTask:
		return nil
	case types.ElementEvent:
		// 跟进事件在运行时单独走查，这里只要求事件本身可解析
		return nil
	case types.ElementGateway:
		edges := m.OutgoingEdges(target.ElementID)
		if len(edges) == 0 {
			return fmt.Errorf("gateway '%s' has no outgoing edge", target.ElementID)
		}
		hasDefault := false
		for _, edge := range edges {
			if edge.IsDefault {
				hasDefault = true
			}
			// 每条分支使用独立的访问集，多条边汇聚到同一任务不是环
			branch := make(map[string]struct{}, len(visited))
			for id := range visited {
				branch[id] = struct{}{}
			}
			if err := m.walkTarget(edge.Target, branch); err != nil {
				return err
			}
		}
		if !hasDefault {
			return fmt.Errorf("gateway '%s' carries no else edge", target.ElementID)
		}
		return nil
	default:
		return fmt.Errorf("unknown element kind '%s'", target.Kind)
	}
}

func applyItems(entity *document.ItemCollection, items []xmlItem) {
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		if len(item.Values) == 1 {
			entity.WithItem(item.Name, item.Values[0])
		} else {
			entity.WithItem(item.Name, item.Values)
		}
	}
}

func applyDataObjects(entity *document.ItemCollection, dataObjects []xmlDataObject) {
	if len(dataObjects) == 0 {
		return
	}
	list := make([]interface{}, 0, len(dataObjects))
	for _, d := range dataObjects {
		list = append(list, []interface{}{d.Name, strings.TrimSpace(d.Content)})
	}
	entity.WithItem(ItemDataObjects, list)
}

func invalidEntry(elementID, message string) *types.ModelError {
	return types.NewModelError("parser", types.CodeInvalidModelEntry,
		fmt.Sprintf("%s (element '%s')", message, elementID))
}

func atoi(s string) int {
	n := 0
	for _, c := range strings.TrimSpace(s) {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
