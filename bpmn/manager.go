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
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// ModelManager owns the set of BPMN models indexed by version. Writes swap a
// copied index, so concurrent readers never observe a partial update.
//
// ModelManager 按版本索引BPMN模型，写时复制索引。
type ModelManager struct {
	mu     sync.RWMutex
	models map[string]types.Model
}

var _ types.ModelManager = (*ModelManager)(nil)

// NewModelManager 创建模型管理器
func NewModelManager() *ModelManager {
	return &ModelManager{models: make(map[string]types.Model)}
}

// AddModel 注册模型，版本重复则覆盖
func (mm *ModelManager) AddModel(model types.Model) error {
	if model == nil || strings.TrimSpace(model.Version()) == "" {
		return types.NewModelError("modelmanager", types.CodeInvalidModelEntry, "model carries no version")
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	next := make(map[string]types.Model, len(mm.models)+1)
	for k, v := range mm.models {
		next[k] = v
	}
	next[model.Version()] = model
	mm.models = next
	return nil
}

// RemoveModel 按版本删除模型
func (mm *ModelManager) RemoveModel(version string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	next := make(map[string]types.Model, len(mm.models))
	for k, v := range mm.models {
		if k != version {
			next[k] = v
		}
	}
	mm.models = next
}

// GetModel 按版本精确查找模型
func (mm *ModelManager) GetModel(version string) (types.Model, error) {
	mm.mu.RLock()
	model, ok := mm.models[version]
	mm.mu.RUnlock()
	if !ok {
		return nil, types.NewModelError("modelmanager", types.CodeUndefinedModelEntry,
			fmt.Sprintf("model version '%s' not found", version))
	}
	return model, nil
}

// GetModelByWorkitem resolves the model for a workitem. A $modelversion
// starting with '(' or '^' is treated as a regular expression and the
// highest sorted matching version wins. Without any version match the
// workitem's $workflowgroup selects the highest version whose definition
// groups contain it.
func (mm *ModelManager) GetModelByWorkitem(workitem *document.ItemCollection) (types.Model, error) {
	if workitem == nil {
		return nil, types.NewModelError("modelmanager", types.CodeUndefinedModelEntry, "workitem is nil")
	}
	version := workitem.GetModelVersion()

	if strings.HasPrefix(version, "(") || strings.HasPrefix(version, "^") {
		pattern, err := regexp.Compile(version)
		if err != nil {
			return nil, types.NewModelError("modelmanager", types.CodeUndefinedModelEntry,
				fmt.Sprintf("invalid model version pattern '%s': %v", version, err))
		}
		for _, candidate := range mm.sortedVersions() {
			if pattern.MatchString(candidate) {
				return mm.GetModel(candidate)
			}
		}
		return nil, types.NewModelError("modelmanager", types.CodeUndefinedModelEntry,
			fmt.Sprintf("no model version matches pattern '%s'", version))
	}

	if version != "" {
		if model, err := mm.GetModel(version); err == nil {
			return model, nil
		}
	}

	// 回退到按工作流分组解析
	if group := workitem.GetWorkflowGroup(); group != "" {
		for _, candidate := range mm.sortedVersions() {
			model, err := mm.GetModel(candidate)
			if err != nil {
				continue
			}
			for _, g := range model.Definition().GetItemValueList("txtworkflowgroups") {
				if g == group {
					return model, nil
				}
			}
		}
	}
	return nil, types.NewModelError("modelmanager", types.CodeUndefinedModelEntry,
		fmt.Sprintf("no model found for version '%s'", version))
}

// sortedVersions 版本号降序排列
func (mm *ModelManager) sortedVersions() []string {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	versions := make([]string, 0, len(mm.models))
	for v := range mm.models {
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions
}
