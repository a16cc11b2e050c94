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

package js

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

func closeStateChan(state chan int) {
	// 超过时间也会执行到这里
	// 如果没有超过时间，那么取出的是0，否则取出的是2
	if <-state == 0 {
		state <- 1
	}
	close(state)
}

// GojaEngine goja js引擎
// Runs one script against a set of host variables with a hard execution
// timeout. A fresh runtime is created per Run; rule scripts are short and
// model-driven, so there is no VM pool.
type GojaEngine struct {
	maxExecutionTime time.Duration
}

// NewGojaEngine 创建一个新的js引擎实例
func NewGojaEngine(maxExecutionTime time.Duration) *GojaEngine {
	if maxExecutionTime <= 0 {
		maxExecutionTime = time.Millisecond * 2000
	}
	return &GojaEngine{maxExecutionTime: maxExecutionTime}
}

// Run executes the script with the given variables and returns the exported
// value of the final expression. The script is interrupted after the
// configured maximum execution time.
func (g *GojaEngine) Run(script string, vars map[string]interface{}) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()

	vm := goja.New()
	// 宿主对象方法以首字母小写暴露给脚本
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	for k, v := range vars {
		if setErr := vm.Set(k, v); setErr != nil {
			return nil, errors.New("set variable error,err:" + setErr.Error())
		}
	}

	state := make(chan int, 1)
	state <- 0
	time.AfterFunc(g.maxExecutionTime, func() {
		if <-state == 0 {
			state <- 2
			vm.Interrupt("execution timeout")
		}
	})

	res, err := vm.RunString(script)
	closeStateChan(state)

	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.Export(), nil
}
