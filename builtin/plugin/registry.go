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

package plugin

import (
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/engine"
)

// 注册插件。MailPlugin依赖投递器配置，由宿主自行构造注册。
func init() {
	_ = engine.Registry.Register("owner", func() types.Plugin { return &OwnerPlugin{} })
	_ = engine.Registry.Register("history", func() types.Plugin { return &HistoryPlugin{} })
	_ = engine.Registry.Register("rule", func() types.Plugin { return &RulePlugin{} })
	_ = engine.Registry.Register("result", func() types.Plugin { return &ResultPlugin{} })
}
