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

package scheduler

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/store"
	"github.com/rulego/docflow/test/assert"
)

// countingJob 记录调用次数的测试任务
type countingJob struct {
	runs int32
	fail error
}

func (j *countingJob) Run(config *document.ItemCollection) (*document.ItemCollection, error) {
	atomic.AddInt32(&j.runs, 1)
	if j.fail != nil {
		return nil, j.fail
	}
	return config, nil
}

func newTestService() (*Service, *store.Memory) {
	memory := store.NewMemory()
	service := NewService(memory, types.NewConfig(types.WithLogger(types.DiscardLogger())))
	return service, memory
}

func newSchedulerConfig(name, definition, jobName string) *document.ItemCollection {
	return document.New().
		WithType(types.DocTypeScheduler).
		WithItem("name", name).
		WithItem(ItemDefinition, definition).
		WithItem(ItemJobName, jobName)
}

func TestParseCalendarExpression(t *testing.T) {
	expression, err := ParseCalendarExpression("second=0\nminute=*/5\nhour=*\ntimezone=Europe/Berlin\nignoredKey=x")
	assert.Nil(t, err)
	assert.Equal(t, "CRON_TZ=Europe/Berlin 0 */5 * * * *", expression.CronSpec())

	// 分号分隔同样可用，空白容忍
	expression, err = ParseCalendarExpression(" minute=* ; hour=* ")
	assert.Nil(t, err)
	assert.Equal(t, "0 * * * * *", expression.CronSpec())

	_, err = ParseCalendarExpression("")
	assert.NotNil(t, err)

	_, err = ParseCalendarExpression("minute")
	assert.NotNil(t, err)
}

func TestCalendarExpressionWindow(t *testing.T) {
	expression, err := ParseCalendarExpression("minute=*\nyear=2030\nstart=2030-01-01T00:00:00Z\nend=2030-12-31T00:00:00Z")
	assert.Nil(t, err)
	assert.False(t, expression.InWindow(time.Date(2029, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, expression.InWindow(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestStartStopTimer(t *testing.T) {
	service, memory := newTestService()
	defer service.Shutdown()
	service.RegisterJob("demo", &countingJob{})

	config, err := memory.Save(newSchedulerConfig("demo", "second=*", "demo"))
	assert.Nil(t, err)
	id := config.GetUniqueID()

	config, err = service.Start(config)
	assert.Nil(t, err)
	assert.True(t, config.GetItemValueBoolean(ItemEnabled))
	_, ok := service.FindTimer(id)
	assert.True(t, ok)

	// 重复start只留一个定时器
	config, err = service.Start(config)
	assert.Nil(t, err)
	_, ok = service.FindTimer(id)
	assert.True(t, ok)

	config, err = service.Stop(config)
	assert.Nil(t, err)
	assert.False(t, config.GetItemValueBoolean(ItemEnabled))
	_, ok = service.FindTimer(id)
	assert.False(t, ok)
	assert.False(t, config.HasItem(ItemNextTimeout))
}

func TestStartInvalidDefinition(t *testing.T) {
	service, memory := newTestService()
	defer service.Shutdown()

	config, _ := memory.Save(newSchedulerConfig("broken", "", "demo"))
	_, err := service.Start(config)
	assert.NotNil(t, err)
	schedulerErr, ok := err.(*types.SchedulerError)
	assert.True(t, ok)
	assert.Equal(t, types.CodeInvalidDefinition, schedulerErr.Code)
}

func TestSchedulerFiring(t *testing.T) {
	service, memory := newTestService()
	defer service.Shutdown()
	job := &countingJob{}
	service.RegisterJob("demo", job)

	config, _ := memory.Save(newSchedulerConfig("demo", "second=*", "demo"))
	id := config.GetUniqueID()
	config, err := service.Start(config)
	assert.Nil(t, err)
	_, err = memory.Save(config)
	assert.Nil(t, err)

	// 等待至少一次触发
	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&job.runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	assert.True(t, atomic.LoadInt32(&job.runs) > 0, "job never fired")

	// 成功触发之后配置在新事务里持久化并追加Finished日志
	deadline = time.Now().Add(2 * time.Second)
	var persisted *document.ItemCollection
	for time.Now().Before(deadline) {
		persisted, _ = memory.Load(id)
		if persisted != nil && hasLogEntry(persisted, "Finished:") {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.NotNil(t, persisted)
	assert.True(t, hasLogEntry(persisted, "Finished:"), "missing Finished log entry")
}

func TestSchedulerErrorStopsTimer(t *testing.T) {
	service, memory := newTestService()
	defer service.Shutdown()
	job := &countingJob{fail: types.NewSchedulerError(types.CodeProcessingError, "boom")}
	service.RegisterJob("failing", job)

	config, _ := memory.Save(newSchedulerConfig("failing", "second=*", "failing"))
	id := config.GetUniqueID()
	config, err := service.Start(config)
	assert.Nil(t, err)
	_, _ = memory.Save(config)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := service.FindTimer(id); !ok {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	_, ok := service.FindTimer(id)
	assert.False(t, ok, "timer still alive after SchedulerError")

	persisted, _ := memory.Load(id)
	assert.NotNil(t, persisted)
	assert.False(t, persisted.GetItemValueBoolean(ItemEnabled))
	assert.True(t, hasLogEntry(persisted, "Error:"), "missing Error log entry")
}

func TestMissingJobStopsTimer(t *testing.T) {
	service, memory := newTestService()
	defer service.Shutdown()

	config, _ := memory.Save(newSchedulerConfig("ghost", "second=*", "notRegistered"))
	id := config.GetUniqueID()
	_, err := service.Start(config)
	assert.Nil(t, err)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := service.FindTimer(id); !ok {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	_, ok := service.FindTimer(id)
	assert.False(t, ok)
}

func TestStartAllSchedulers(t *testing.T) {
	service, memory := newTestService()
	defer service.Shutdown()
	service.RegisterJob("demo", &countingJob{})

	enabled := newSchedulerConfig("enabled", "second=*", "demo")
	_ = enabled.SetItemValue(ItemEnabled, true)
	enabled, _ = memory.Save(enabled)

	disabled := newSchedulerConfig("disabled", "second=*", "demo")
	_ = disabled.SetItemValue(ItemEnabled, false)
	disabled, _ = memory.Save(disabled)

	assert.Nil(t, service.StartAllSchedulers())

	_, ok := service.FindTimer(enabled.GetUniqueID())
	assert.True(t, ok)
	_, ok = service.FindTimer(disabled.GetUniqueID())
	assert.False(t, ok)
}

func TestLoadAndSaveConfiguration(t *testing.T) {
	service, _ := newTestService()
	defer service.Shutdown()

	saved, err := service.SaveConfiguration(newSchedulerConfig("mail-daily", "minute=*", "demo"))
	assert.Nil(t, err)
	assert.Equal(t, types.DocTypeScheduler, saved.GetType())

	// 按name查找，兼容txtname别名
	loaded, err := service.LoadConfiguration("mail-daily")
	assert.Nil(t, err)
	assert.NotNil(t, loaded)
	assert.Equal(t, saved.GetUniqueID(), loaded.GetUniqueID())

	missing, err := service.LoadConfiguration("unknown")
	assert.Nil(t, err)
	assert.Nil(t, missing)
}

func hasLogEntry(config *document.ItemCollection, prefix string) bool {
	for _, line := range config.GetItemValueList(ItemLog) {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
