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

// Package engine implements the workflow kernel: the state-transition
// interpreter that advances a workitem along the BPMN model graph. One
// Process call executes exactly one process step: it validates the incoming
// state, runs the plugin chain, resolves conditional and split gateways,
// commits the task transition and publishes the lifecycle phases.
//
// Package engine 实现工作流内核：沿BPMN模型图推进工作项的状态迁移解释器。
//
// The kernel recovers nothing. Every error aborts the step, already-run
// plugins are closed with rollback=true and persistence stays with the
// caller. A Kernel instance is not re-entrant per workitem; callers must not
// run two concurrent steps on the same workitem id.
package engine

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/bpmn"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/rule"
	"github.com/rulego/docflow/text"
)

// 事件队列与事件属性条目名
const (
	ItemActivityIDList = "$activityidlist"
	itemAdapterID      = "adapter.id"
	itemNextActivity   = bpmn.ItemNextActivityID
	itemFollowUp       = bpmn.ItemFollowUp
)

// Kernel 工作流内核
// Plugins run in registration order; adapters are resolved per event by
// name. Observers receive the BEFORE_PROCESS and AFTER_PROCESS phases
// synchronously.
type Kernel struct {
	ctx        types.WorkflowContext
	plugins    []types.Plugin
	adapters   map[string]types.Adapter
	observers  []types.PhaseObserver
	ruleEngine *rule.Engine
	adapter    *text.Adapter
	resolver   *accessResolver
	// splitWorkitems 最近一次Process产生的分裂工作项
	splitWorkitems []*document.ItemCollection
}

// NewKernel 创建工作流内核
func NewKernel(ctx types.WorkflowContext) *Kernel {
	textAdapter := text.NewAdapter(ctx.Config())
	return &Kernel{
		ctx:        ctx,
		adapters:   make(map[string]types.Adapter),
		ruleEngine: rule.NewEngine(ctx.Config()),
		adapter:    textAdapter,
		resolver:   newAccessResolver(ctx.Caller(), textAdapter),
	}
}

// RegisterPlugin appends a plugin to the chain and initializes it. The
// registration order is the execution order.
func (k *Kernel) RegisterPlugin(plugin types.Plugin) error {
	if err := plugin.Init(k.ctx); err != nil {
		return err
	}
	k.plugins = append(k.plugins, plugin)
	return nil
}

// RegisterPluginByName resolves the plugin from the default registry.
func (k *Kernel) RegisterPluginByName(name string) error {
	plugin, err := Registry.New(name)
	if err != nil {
		return err
	}
	return k.RegisterPlugin(plugin)
}

// RegisterAdapter binds an event adapter under the name BPMN events
// reference in their adapter.id item.
func (k *Kernel) RegisterAdapter(name string, adapter types.Adapter) {
	k.adapters[name] = adapter
}

// RegisterObserver appends a lifecycle phase observer.
func (k *Kernel) RegisterObserver(observer types.PhaseObserver) {
	k.observers = append(k.observers, observer)
}

// GetSplitWorkitems returns the sibling workitems born at split gateways
// during the last Process call.
func (k *Kernel) GetSplitWorkitems() []*document.ItemCollection {
	return k.splitWorkitems
}

// Process executes exactly one process step on the workitem. The workitem
// must carry $modelversion, $taskid and $eventid; $eventid may be 0 only if
// the $activityidlist queue carries follow-up events. The workitem is
// mutated in place and returned; persistence is the caller's responsibility
// after a clean return.
func (k *Kernel) Process(workitem *document.ItemCollection) (*document.ItemCollection, error) {
	if workitem == nil {
		return nil, types.NewProcessingError("kernel", "workitem is nil")
	}
	k.splitWorkitems = nil

	model, err := k.ctx.ModelManager().GetModelByWorkitem(workitem)
	if err != nil {
		return nil, err
	}
	if workitem.GetTaskID() <= 0 {
		return nil, types.NewProcessingError("kernel", "workitem carries no $taskid")
	}
	if workitem.GetEventID() <= 0 && workitem.IsItemEmpty(ItemActivityIDList) {
		return nil, types.NewProcessingError("kernel", "workitem carries no $eventid")
	}
	if err := k.checkWriteAccess(workitem); err != nil {
		return nil, err
	}
	if workitem.GetUniqueID() == "" {
		workitem.WithUniqueID(newUniqueID())
	}

	k.publish(types.BeforeProcess, workitem)

	// 每次调用维护 (taskID, eventID) 访问集，检测循环跟进
	visited := make(map[[2]int]struct{})
	var ranPlugins []types.Plugin

	fail := func(stepErr error) (*document.ItemCollection, error) {
		k.closePlugins(ranPlugins, true)
		return nil, stepErr
	}

	for {
		eventID := workitem.GetEventID()
		if eventID <= 0 {
			if next, ok := dequeueActivity(workitem); ok {
				eventID = next
				workitem.WithEventID(next)
			} else {
				break
			}
		}
		taskID := workitem.GetTaskID()

		key := [2]int{taskID, eventID}
		if _, seen := visited[key]; seen {
			return fail(&types.ProcessingError{WorkflowError: types.WorkflowError{
				ErrContext: "kernel", Code: types.CodeCyclicFollowUp,
				Message: fmt.Sprintf("cyclic follow-up at event %d.%d", taskID, eventID),
			}})
		}
		visited[key] = struct{}{}

		event, err := model.GetEvent(taskID, eventID)
		if err != nil {
			return fail(err)
		}

		// 插件链按注册顺序执行
		for _, plugin := range k.plugins {
			ranPlugins = appendOnce(ranPlugins, plugin)
			if workitem, err = plugin.Run(workitem, event); err != nil {
				return fail(asPluginError(err))
			}
		}
		// 事件绑定的适配器在全局插件链之后执行
		for _, name := range event.GetItemValueList(itemAdapterID) {
			adapter, ok := k.adapters[name]
			if !ok {
				return fail(types.NewPluginError("kernel", types.CodeProcessingError,
					fmt.Sprintf("adapter '%s' not registered", name)))
			}
			if workitem, err = adapter.Execute(workitem, event); err != nil {
				return fail(asPluginError(err))
			}
		}

		// 网关解析，确定后继任务
		nextTask, followUpEvent, err := k.resolvePath(model, workitem, event)
		if err != nil {
			return fail(err)
		}

		if followUpEvent != nil {
			// 事件链：工作项停留在当前任务，下一轮处理跟进事件
			enqueueActivity(workitem, followUpEvent.GetItemValueInteger(bpmn.ItemActivityID))
		} else if nextTask != nil {
			if err := k.commit(workitem, event, nextTask); err != nil {
				return fail(err)
			}
		}

		// 事件自身声明的跟进事件
		if event.GetItemValueBoolean(itemFollowUp) || event.GetItemValueString(itemFollowUp) == "1" {
			if next := event.GetItemValueInteger(itemNextActivity); next > 0 {
				enqueueActivity(workitem, next)
			}
		}

		workitem.WithEventID(0)
	}

	k.publish(types.AfterProcess, workitem)
	for _, sibling := range k.splitWorkitems {
		k.publish(types.AfterProcess, sibling)
	}

	k.closePlugins(ranPlugins, false)
	return workitem, nil
}

// Eval walks the model from the workitem's current event to the task the
// transition would commit, without running plugins and without mutating the
// workitem. Used for process simulation. When the path ends at a follow-up
// event the current task id is returned; follow-up events are not walked.
func (k *Kernel) Eval(workitem *document.ItemCollection) (int, error) {
	model, err := k.ctx.ModelManager().GetModelByWorkitem(workitem)
	if err != nil {
		return 0, err
	}
	event, err := model.GetEvent(workitem.GetTaskID(), workitem.GetEventID())
	if err != nil {
		return 0, err
	}
	probe := workitem.Clone()
	nextTask, followUp, err := (&Kernel{
		ctx:        k.ctx,
		ruleEngine: k.ruleEngine,
		adapter:    k.adapter,
		resolver:   k.resolver,
	}).resolvePath(model, probe, event)
	if err != nil {
		return 0, err
	}
	if followUp != nil {
		return workitem.GetTaskID(), nil
	}
	if nextTask == nil {
		return workitem.GetTaskID(), nil
	}
	return nextTask.GetItemValueInteger(bpmn.ItemProcessID), nil
}

// resolvePath follows the event's outgoing path through any gateways until
// a task or a follow-up event is reached. Split gateways fork sibling
// workitems from the state after the plugin chain.
func (k *Kernel) resolvePath(model types.Model, workitem, event *document.ItemCollection) (*document.ItemCollection, *document.ItemCollection, error) {
	target, err := model.SuccessorOf(event)
	if err != nil {
		return nil, nil, err
	}
	for {
		switch target.Kind {
		case types.ElementTask:
			return target.Task, nil, nil
		case types.ElementEvent:
			return nil, target.Event, nil
		case types.ElementGateway:
			if target, err = k.resolveGateway(model, workitem, event, target); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, types.NewModelError("kernel", types.CodeInvalidModelEntry,
				fmt.Sprintf("unexpected element kind '%s'", target.Kind))
		}
	}
}

// resolveGateway picks the outgoing edge of a gateway. Conditional gateways
// take the first true edge in model-declared order, falling back to the
// mandatory else edge. Split gateways fork a sibling for every true
// non-primary edge and continue on the primary edge.
func (k *Kernel) resolveGateway(model types.Model, workitem, event *document.ItemCollection, gateway *types.FlowTarget) (*types.FlowTarget, error) {
	edges := model.OutgoingEdges(gateway.ElementID)
	if len(edges) == 0 {
		return nil, types.NewModelError("kernel", types.CodeInvalidModelEntry,
			fmt.Sprintf("gateway '%s' has no outgoing edge", gateway.ElementID))
	}

	var defaultEdge *types.FlowEdge
	for i := range edges {
		if edges[i].IsDefault {
			defaultEdge = &edges[i]
			break
		}
	}
	if defaultEdge == nil {
		return nil, types.NewModelError("kernel", types.CodeInvalidModelEntry,
			fmt.Sprintf("gateway '%s' carries no else edge", gateway.ElementID))
	}

	if gateway.GatewayKind == types.GatewayInclusive {
		// 分裂网关：每条为真的副边派生一个兄弟工作项，主项走主边
		for i := range edges {
			edge := &edges[i]
			if edge.IsDefault {
				continue
			}
			// 无条件的副边视为恒真
			match := true
			if edge.Condition != "" {
				var err error
				if match, err = k.ruleEngine.EvalBool(edge.Condition, workitem, event); err != nil {
					return nil, err
				}
			}
			if match {
				if err := k.forkSibling(model, workitem, event, edge.Target); err != nil {
					return nil, err
				}
			}
		}
		return defaultEdge.Target, nil
	}

	// 条件网关：模型声明顺序下第一条为真的边胜出
	for i := range edges {
		edge := &edges[i]
		if edge.IsDefault || edge.Condition == "" {
			continue
		}
		match, err := k.ruleEngine.EvalBool(edge.Condition, workitem, event)
		if err != nil {
			return nil, err
		}
		if match {
			return edge.Target, nil
		}
	}
	return defaultEdge.Target, nil
}

// forkSibling clones the workitem after the plugin chain, walks the sibling
// edge to its task and queues the sibling for separate publication.
func (k *Kernel) forkSibling(model types.Model, workitem, event *document.ItemCollection, target *types.FlowTarget) error {
	// 网关链继续走查到任务
	for target.Kind == types.ElementGateway {
		next, err := k.resolveGateway(model, workitem, event, target)
		if err != nil {
			return err
		}
		target = next
	}
	if target.Kind != types.ElementTask {
		return types.NewModelError("kernel", types.CodeInvalidModelEntry,
			fmt.Sprintf("split edge terminates in no task (element '%s')", target.ElementID))
	}
	sibling := workitem.Clone()
	sibling.WithUniqueID(newUniqueID())
	if err := k.commit(sibling, event, target.Task); err != nil {
		return err
	}
	sibling.WithEventID(0)
	k.splitWorkitems = append(k.splitWorkitems, sibling)
	return nil
}

// commit applies the task transition: new $taskid, status items from the
// target task, event history and the recomputed access lists.
func (k *Kernel) commit(workitem, event, nextTask *document.ItemCollection) error {
	workitem.WithTaskID(nextTask.GetItemValueInteger(bpmn.ItemProcessID))
	_ = workitem.SetItemValue(document.ItemWorkflowStatus, nextTask.GetItemValueString(bpmn.ItemStatus))
	_ = workitem.SetItemValue(document.ItemWorkflowGroup, nextTask.GetItemValueString(bpmn.ItemGroup))

	eventID := event.GetItemValueInteger(bpmn.ItemActivityID)
	_ = workitem.SetItemValue(document.ItemLastEventDate, time.Now())
	_ = workitem.SetItemValue(document.ItemLastEventID, eventID)
	_ = workitem.AppendItemValue(document.ItemEventLog, eventID)

	if err := k.resolver.UpdateACL(workitem, event, nextTask); err != nil {
		return err
	}
	k.resolver.UpdateParticipants(workitem)
	return nil
}

// checkWriteAccess rejects the step when the workitem carries a write
// access list that does not name the caller.
func (k *Kernel) checkWriteAccess(workitem *document.ItemCollection) error {
	writeAccess := workitem.GetItemValueList(document.ItemWriteAccess)
	if len(writeAccess) == 0 {
		return nil
	}
	for _, entry := range writeAccess {
		if entry == k.ctx.Caller() {
			return nil
		}
	}
	return types.NewAccessDeniedError("kernel",
		fmt.Sprintf("caller '%s' has no write access", k.ctx.Caller()))
}

// publish 同步通知生命周期观察者
func (k *Kernel) publish(phase string, workitem *document.ItemCollection) {
	for _, observer := range k.observers {
		observer(phase, workitem)
	}
}

// closePlugins closes every plugin that ran, in reverse order. Close phase
// errors are logged, never thrown.
func (k *Kernel) closePlugins(ranPlugins []types.Plugin, rollback bool) {
	for i := len(ranPlugins) - 1; i >= 0; i-- {
		if err := ranPlugins[i].Close(rollback); err != nil {
			k.ctx.Config().Logger.Printf("plugin close error (rollback=%v): %v", rollback, err)
		}
	}
}

func appendOnce(plugins []types.Plugin, plugin types.Plugin) []types.Plugin {
	for _, p := range plugins {
		if p == plugin {
			return plugins
		}
	}
	return append(plugins, plugin)
}

func asPluginError(err error) error {
	switch err.(type) {
	case *types.PluginError, *types.ModelError, *types.ProcessingError, *types.AccessDeniedError:
		return err
	default:
		return types.NewPluginError("plugin", types.CodeProcessingError, err.Error())
	}
}

func dequeueActivity(workitem *document.ItemCollection) (int, bool) {
	queue := workitem.GetItemValue(ItemActivityIDList)
	if len(queue) == 0 {
		return 0, false
	}
	next, _ := queue[0].(int)
	_ = workitem.SetItemValue(ItemActivityIDList, queue[1:])
	return next, next > 0
}

func enqueueActivity(workitem *document.ItemCollection, eventID int) {
	if eventID > 0 {
		_ = workitem.AppendItemValue(ItemActivityIDList, eventID)
	}
}

func newUniqueID() string {
	id, _ := uuid.NewV4()
	return id.String()
}
