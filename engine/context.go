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
	"github.com/rulego/docflow/api/types"
)

// Context is the default WorkflowContext handed to plugins. It carries the
// caller identity and the engine collaborators; all fields are fixed at
// construction.
type Context struct {
	caller       string
	modelManager types.ModelManager
	store        types.DocumentStore
	config       types.Config
}

var _ types.WorkflowContext = (*Context)(nil)

// NewContext 创建工作流上下文
func NewContext(caller string, modelManager types.ModelManager, store types.DocumentStore, config types.Config) *Context {
	return &Context{
		caller:       caller,
		modelManager: modelManager,
		store:        store,
		config:       config,
	}
}

// Caller 当前调用者身份
func (c *Context) Caller() string {
	return c.caller
}

// ModelManager 模型管理器
func (c *Context) ModelManager() types.ModelManager {
	return c.modelManager
}

// Store 文档存储
func (c *Context) Store() types.DocumentStore {
	return c.store
}

// Config 引擎配置
func (c *Context) Config() types.Config {
	return c.config
}
