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
	"fmt"
)

// 错误码 error codes carried by WorkflowError
const (
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeUndefinedModelEntry = "UNDEFINED_MODEL_ENTRY"
	CodeInvalidModelEntry   = "INVALID_MODEL_ENTRY"
	CodeUndefinedTask       = "UNDEFINED_TASK"
	CodeUndefinedEvent      = "UNDEFINED_EVENT"
	CodeCyclicFollowUp      = "CYCLIC_FOLLOW_UP"
	CodeProcessingError     = "PROCESSING_ERROR"
	CodeRuleError           = "RULE_ERROR"
	CodeInvalidDefinition   = "INVALID_SCHEDULER_DEFINITION"
	CodeJobNotFound         = "JOB_NOT_FOUND"
)

// WorkflowError 引擎错误
// Errors surface as (context, code, message, params) tuples suitable for
// localization. Context names the failing component, Code is one of the
// Code* constants.
type WorkflowError struct {
	//ErrContext 出错组件名
	ErrContext string
	//Code 错误码
	Code string
	//Message 错误消息
	Message string
	//Params 本地化参数
	Params []interface{}
	//Err 原始错误
	Err error
}

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s] %s: %v", e.ErrContext, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s] %s", e.ErrContext, e.Code, e.Message)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// ModelError 模型错误：模型缺失、版本无法解析、任务/事件未定义、事件ID重复
// A cyclic follow-up detected while processing is reported as a
// ProcessingError with code CodeCyclicFollowUp.
type ModelError struct {
	WorkflowError
}

// NewModelError 创建模型错误
func NewModelError(context, code, message string, params ...interface{}) *ModelError {
	return &ModelError{WorkflowError{ErrContext: context, Code: code, Message: message, Params: params}}
}

// ProcessingError 工作项结构错误：缺少必需条目、意外空值
type ProcessingError struct {
	WorkflowError
}

// NewProcessingError 创建处理错误
func NewProcessingError(context, message string, params ...interface{}) *ProcessingError {
	return &ProcessingError{WorkflowError{ErrContext: context, Code: CodeProcessingError, Message: message, Params: params}}
}

// AccessDeniedError 调用者缺少目标文档所需的角色或者ACL
type AccessDeniedError struct {
	WorkflowError
}

// NewAccessDeniedError 创建访问拒绝错误
func NewAccessDeniedError(context, message string, params ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{WorkflowError{ErrContext: context, Code: CodeAccessDenied, Message: message, Params: params}}
}

// PluginError 插件执行失败，携带插件自定义子码
type PluginError struct {
	WorkflowError
}

// NewPluginError 创建插件错误
// context is the plugin name, code the plugin specific sub code.
func NewPluginError(context, code, message string, params ...interface{}) *PluginError {
	return &PluginError{WorkflowError{ErrContext: context, Code: code, Message: message, Params: params}}
}

// NewRuleError 创建脚本错误，PluginError 的子类
func NewRuleError(context string, err error) *PluginError {
	return &PluginError{WorkflowError{ErrContext: context, Code: CodeRuleError, Message: "script evaluation failed", Err: err}}
}

// SchedulerError 调度错误：日历表达式非法、实现未注册、存储失败
// A SchedulerError returned from a job run stops the timer.
type SchedulerError struct {
	WorkflowError
}

// NewSchedulerError 创建调度错误
func NewSchedulerError(code, message string, params ...interface{}) *SchedulerError {
	return &SchedulerError{WorkflowError{ErrContext: "scheduler", Code: code, Message: message, Params: params}}
}
