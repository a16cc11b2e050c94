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

package types

import (
	"github.com/rulego/docflow/document"
)

// 生命周期阶段 lifecycle phases published to observers
const (
	BeforeProcess = "BEFORE_PROCESS"
	AfterProcess  = "AFTER_PROCESS"
)

// 保留文档类型 reserved document types
const (
	DocTypeScheduler = "scheduler"
	DocTypeAdminJob  = "adminp"
)

// PhaseObserver 生命周期观察者
// Observers are invoked synchronously in the kernel's goroutine, before
// Process returns. They must not mutate the workitem.
type PhaseObserver func(phase string, workitem *document.ItemCollection)

// Plugin 流程步骤插件
// A plugin is a registered side-effect unit executed on every process step.
// Run may mutate and return the workitem. Close is called once per step on
// every plugin whose Run was invoked, in reverse registration order, with
// rollback=true when the step failed.
type Plugin interface {
	//Init 插件初始化，进程启动时调用一次
	Init(ctx WorkflowContext) error
	//Run 处理工作项，每个流程步骤调用一次
	Run(workitem *document.ItemCollection, event *document.ItemCollection) (*document.ItemCollection, error)
	//Close 释放资源或者提交延迟副作用。rollback=true 表示该步骤失败
	Close(rollback bool) error
}

// Adapter 事件绑定的副作用单元
// Unlike plugins, adapters are attached to a single BPMN event by name and
// run after the global plugin chain.
type Adapter interface {
	//Execute 处理工作项
	Execute(workitem *document.ItemCollection, event *document.ItemCollection) (*document.ItemCollection, error)
}

// WorkflowContext 插件运行环境
// Carries the caller identity and the engine collaborators. Passed to each
// plugin during Init; never nil during a process step.
type WorkflowContext interface {
	//Caller 当前调用者身份
	Caller() string
	//ModelManager 模型管理器
	ModelManager() ModelManager
	//Store 文档存储
	Store() DocumentStore
	//Config 引擎配置
	Config() Config
}

// ModelManager BPMN模型管理器
// Owns a set of BPMN models indexed by version.
type ModelManager interface {
	//AddModel 注册模型，版本重复则覆盖
	AddModel(model Model) error
	//RemoveModel 按版本删除模型
	RemoveModel(version string)
	//GetModel 按版本精确查找模型
	GetModel(version string) (Model, error)
	//GetModelByWorkitem 根据工作项的 $modelversion（支持正则）或者 $workflowgroup 查找模型
	GetModelByWorkitem(workitem *document.ItemCollection) (Model, error)
}

// Model 单个版本的BPMN模型
// Tasks and events are exposed as attribute bags. Task ids are unique within
// a model version; events are keyed by (taskID, eventID).
type Model interface {
	//Version 模型版本
	Version() string
	//Definition 模型概要信息
	Definition() *document.ItemCollection
	//GetTask 按ID查找任务
	GetTask(taskID int) (*document.ItemCollection, error)
	//GetEvent 按 (taskID, eventID) 查找事件
	GetEvent(taskID int, eventID int) (*document.ItemCollection, error)
	//FindAllEventsByTask 查找任务的全部事件
	FindAllEventsByTask(taskID int) []*document.ItemCollection
	//FindTasksByGroup 查找工作流分组的全部任务
	FindTasksByGroup(group string) []*document.ItemCollection
	//GetDataObject 返回与元素关联的BPMN DataObject内容
	GetDataObject(element *document.ItemCollection, name string) (string, bool)
	//SuccessorOf 解析事件的后继元素：任务、网关或者跟进事件
	SuccessorOf(event *document.ItemCollection) (*FlowTarget, error)
	//OutgoingEdges 返回网关元素的出边，保持模型声明顺序
	OutgoingEdges(elementID string) []FlowEdge
}

// 流程元素种类 flow element kinds
const (
	ElementTask    = "task"
	ElementEvent   = "event"
	ElementGateway = "gateway"
)

// 网关种类 gateway kinds
const (
	GatewayExclusive = "exclusive"
	GatewayInclusive = "inclusive"
)

// FlowTarget 流程走查目标
// Describes the element a sequence flow points at.
type FlowTarget struct {
	//Kind 元素种类
	Kind string
	//ElementID BPMN元素ID
	ElementID string
	//GatewayKind 网关种类，Kind==ElementGateway时有效
	GatewayKind string
	//Task 任务属性包，Kind==ElementTask时有效
	Task *document.ItemCollection
	//Event 事件属性包，Kind==ElementEvent时有效
	Event *document.ItemCollection
}

// FlowEdge 网关出边
// Conditional edges carry a boolean expression; the else edge is marked
// IsDefault.
type FlowEdge struct {
	//Condition 布尔表达式，可为空
	Condition string
	//IsDefault 是否else边/主边
	IsDefault bool
	//Target 目标元素
	Target *FlowTarget
}

// DocumentStore 文档存储协作者
// The engine never persists by itself; persistence is delegated through this
// narrow contract. Implementations must be safe for concurrent use.
type DocumentStore interface {
	//Save 保存并返回文档，可能补写 $uniqueid/$created/$modified
	Save(doc *document.ItemCollection) (*document.ItemCollection, error)
	//Load 按ID加载文档，未找到返回 nil
	Load(id string) (*document.ItemCollection, error)
	//Find 按查询语句分页查找
	Find(query string, pageSize int, pageIndex int) ([]*document.ItemCollection, error)
	//GetDocumentsByType 按类型查找
	GetDocumentsByType(docType string) ([]*document.ItemCollection, error)
}

// SchedulerJob 用户提供的调度任务实现
// Run receives the persisted configuration document and returns the updated
// configuration. Returning a SchedulerError stops the timer.
type SchedulerJob interface {
	//Run 执行一次调度
	Run(config *document.ItemCollection) (*document.ItemCollection, error)
}
