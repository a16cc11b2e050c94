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
	"errors"
	"sync"

	"github.com/rulego/docflow/api/types"
)

// Registry is the default plugin registry. Hosts register plugin factories
// at startup under the name the BPMN model references.
// Registry 默认插件注册器
var Registry = NewPluginRegistry()

// PluginRegistry 插件注册器
// Maps plugin names to factories. There is no reflection based class-name
// lookup; a name not registered here does not exist.
type PluginRegistry struct {
	sync.RWMutex
	factories map[string]func() types.Plugin
}

// NewPluginRegistry 创建插件注册器
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{factories: make(map[string]func() types.Plugin)}
}

// Register 注册插件工厂，如果`name`已经存在则返回一个`已存在`错误
func (r *PluginRegistry) Register(name string, factory func() types.Plugin) error {
	if name == "" || factory == nil {
		return errors.New("name and factory can not be empty")
	}
	r.Lock()
	defer r.Unlock()
	if _, ok := r.factories[name]; ok {
		return errors.New("the plugin already exists. name=" + name)
	}
	r.factories[name] = factory
	return nil
}

// Unregister 删除插件
func (r *PluginRegistry) Unregister(name string) {
	r.Lock()
	defer r.Unlock()
	delete(r.factories, name)
}

// New 通过名称创建一个新的插件实例
func (r *PluginRegistry) New(name string) (types.Plugin, error) {
	r.RLock()
	factory, ok := r.factories[name]
	r.RUnlock()
	if !ok {
		return nil, errors.New("plugin not found. name=" + name)
	}
	return factory(), nil
}

// Names 获取所有注册插件名称
func (r *PluginRegistry) Names() []string {
	r.RLock()
	defer r.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
