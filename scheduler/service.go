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

// Package scheduler fires caller-supplied jobs on a calendar schedule. Each
// scheduler configuration is a persisted document of type "scheduler"; at
// most one live timer exists per configuration id. Firings for the same id
// are serialized, firings across ids run in parallel.
//
// Package scheduler 按日历调度触发调用方提供的任务。
package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/utils/aes"
)

// 调度配置条目名
const (
	ItemDefinition    = "txtscheduledefinition"
	ItemJobName       = "txtschedulerclass"
	ItemEnabled       = "$enabled"
	ItemLog           = "txtschedulerlog"
	ItemErrorMessage  = "txtschedulererror"
	ItemNextTimeout   = "nexttimeout"
	ItemTimeRemaining = "timeremaining"

	// maxLogEntries 日志条目上限，最旧的先淘汰
	maxLogEntries = 30

	// encPrefix 标记需要用引擎密钥解密的配置值
	encPrefix = "enc:"
)

// Service 调度服务
// Owns the cron runtime and the registry of job implementations. Global
// process state with an explicit lifecycle: StartAllSchedulers at startup,
// Shutdown cancels every timer.
type Service struct {
	store  types.DocumentStore
	config types.Config
	cron   *cron.Cron

	mu     sync.Mutex
	jobs   map[string]types.SchedulerJob
	timers map[string]cron.EntryID
	// firing 同一配置ID的触发串行化
	firing map[string]*sync.Mutex
}

// NewService 创建调度服务并启动cron运行时
func NewService(store types.DocumentStore, config types.Config) *Service {
	s := &Service{
		store:  store,
		config: config,
		cron:   cron.New(cron.WithSeconds()),
		jobs:   make(map[string]types.SchedulerJob),
		timers: make(map[string]cron.EntryID),
		firing: make(map[string]*sync.Mutex),
	}
	s.cron.Start()
	return s
}

// RegisterJob registers a job implementation under the name scheduler
// configurations reference.
func (s *Service) RegisterJob(name string, job types.SchedulerJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = job
}

// Start cancels any existing timer of the configuration, parses the
// calendar expression and creates a fresh calendar timer keyed by the
// configuration id.
func (s *Service) Start(config *document.ItemCollection) (*document.ItemCollection, error) {
	if config == nil {
		return nil, types.NewSchedulerError(types.CodeInvalidDefinition, "configuration is nil")
	}
	if config.GetUniqueID() == "" {
		saved, err := s.SaveConfiguration(config)
		if err != nil {
			return nil, err
		}
		config = saved
	}
	id := config.GetUniqueID()

	expression, err := ParseCalendarExpression(config.GetItemValueString(ItemDefinition))
	if err != nil {
		return nil, err
	}

	s.cancelTimer(id)
	entryID, err := s.cron.AddFunc(expression.CronSpec(), func() {
		s.onTimeout(id, expression)
	})
	if err != nil {
		return nil, types.NewSchedulerError(types.CodeInvalidDefinition, err.Error())
	}
	s.mu.Lock()
	s.timers[id] = entryID
	s.mu.Unlock()

	_ = config.SetItemValue(ItemEnabled, true)
	config.RemoveItem(ItemErrorMessage)
	s.LogMessage(fmt.Sprintf("started at %s", time.Now().Format(time.RFC3339)), config)
	s.UpdateTimerDetails(config)
	return config, nil
}

// Stop cancels the timer if present, clears the derived timeout items and
// disables the configuration.
func (s *Service) Stop(config *document.ItemCollection) (*document.ItemCollection, error) {
	if config == nil {
		return nil, types.NewSchedulerError(types.CodeInvalidDefinition, "configuration is nil")
	}
	id := config.GetUniqueID()
	if s.cancelTimer(id) {
		s.LogMessage(fmt.Sprintf("stopped at %s", time.Now().Format(time.RFC3339)), config)
	}
	config.RemoveItem(ItemNextTimeout)
	config.RemoveItem(ItemTimeRemaining)
	_ = config.SetItemValue(ItemEnabled, false)
	return config, nil
}

// FindTimer returns the next firing time of the live timer with the given
// configuration id.
func (s *Service) FindTimer(id string) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.timers[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(entryID)
	if entry.ID == 0 {
		return time.Time{}, false
	}
	return entry.Next, true
}

// UpdateTimerDetails refreshes the derived display items nextTimeout and
// timeRemaining.
func (s *Service) UpdateTimerDetails(config *document.ItemCollection) {
	if config == nil {
		return
	}
	if next, ok := s.FindTimer(config.GetUniqueID()); ok && !next.IsZero() {
		_ = config.SetItemValue(ItemNextTimeout, next)
		_ = config.SetItemValue(ItemTimeRemaining, int64(time.Until(next)/time.Millisecond))
	} else {
		config.RemoveItem(ItemNextTimeout)
		config.RemoveItem(ItemTimeRemaining)
	}
}

// StartAllSchedulers scans the persisted scheduler documents at process
// start and starts every enabled configuration without a live timer. The
// number of parallel active schedulers is capped.
func (s *Service) StartAllSchedulers() error {
	configs, err := s.store.GetDocumentsByType(types.DocTypeScheduler)
	if err != nil {
		return types.NewSchedulerError(types.CodeProcessingError, err.Error())
	}
	active := 0
	for _, config := range configs {
		if active >= s.config.MaxActiveSchedulers {
			s.config.Logger.Printf("scheduler cap of %d reached, remaining schedulers stay stopped", s.config.MaxActiveSchedulers)
			break
		}
		if !config.GetItemValueBoolean(ItemEnabled) {
			continue
		}
		if _, ok := s.FindTimer(config.GetUniqueID()); ok {
			continue
		}
		if _, err := s.Start(config); err != nil {
			s.config.Logger.Printf("scheduler '%s' failed to start: %v", config.GetItemValueString("name"), err)
			continue
		}
		if _, err := s.store.Save(config); err != nil {
			s.config.Logger.Printf("scheduler '%s' failed to persist: %v", config.GetItemValueString("name"), err)
		}
		active++
	}
	return nil
}

// Shutdown cancels every live timer and stops the cron runtime.
func (s *Service) Shutdown() {
	s.mu.Lock()
	for id, entryID := range s.timers {
		s.cron.Remove(entryID)
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.cron.Stop()
}

// LoadConfiguration finds a scheduler configuration by its name item.
func (s *Service) LoadConfiguration(name string) (*document.ItemCollection, error) {
	query := fmt.Sprintf(`(type:"%s" AND (name:"%s" OR txtname:"%s"))`, types.DocTypeScheduler, name, name)
	result, err := s.store.Find(query, 1, 0)
	if err != nil {
		return nil, types.NewSchedulerError(types.CodeProcessingError, err.Error())
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

// SaveConfiguration persists the configuration with the reserved scheduler
// type.
func (s *Service) SaveConfiguration(config *document.ItemCollection) (*document.ItemCollection, error) {
	config.WithType(types.DocTypeScheduler)
	saved, err := s.store.Save(config)
	if err != nil {
		return nil, types.NewSchedulerError(types.CodeProcessingError, err.Error())
	}
	return saved, nil
}

// LogMessage appends a line to the bounded scheduler log item.
func (s *Service) LogMessage(message string, config *document.ItemCollection) {
	appendLog(config, message)
	s.config.Logger.Printf("scheduler '%s': %s", config.GetItemValueString("name"), message)
}

// LogWarning appends a warning line to the bounded scheduler log item.
func (s *Service) LogWarning(message string, config *document.ItemCollection) {
	appendLog(config, "warning: "+message)
	s.config.Logger.Printf("scheduler '%s' warning: %s", config.GetItemValueString("name"), message)
}

func appendLog(config *document.ItemCollection, message string) {
	log := config.GetItemValueList(ItemLog)
	log = append(log, message)
	if len(log) > maxLogEntries {
		log = log[len(log)-maxLogEntries:]
	}
	_ = config.SetItemValue(ItemLog, log)
}

// cancelTimer 取消配置的现有定时器
func (s *Service) cancelTimer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entryID, ok := s.timers[id]
	if !ok {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.timers, id)
	return true
}

// disposition 一次触发的处理结果
type disposition int

const (
	dispositionOk disposition = iota
	dispositionStop
	dispositionContinue
)

// onTimeout handles one timer firing. The timer disposition is a pure
// function of the dispatch result: Ok reschedules, Stop cancels the timer,
// Continue keeps the timer without persisting progress.
func (s *Service) onTimeout(id string, expression *CalendarExpression) {
	lock := s.firingLock(id)
	lock.Lock()
	defer lock.Unlock()

	config, result, err := s.dispatch(id, expression)
	switch result {
	case dispositionOk:
		if config != nil {
			appendLog(config, fmt.Sprintf("Finished: %s", time.Now().Format(time.RFC3339)))
			s.UpdateTimerDetails(config)
			// 新事务持久化，让部分进度在失败后仍然可见
			if _, saveErr := s.store.Save(config); saveErr != nil {
				s.config.Logger.Printf("scheduler '%s' failed to persist result: %v", id, saveErr)
			}
		}
	case dispositionStop:
		s.cancelTimer(id)
		if config != nil {
			if err != nil {
				appendLog(config, fmt.Sprintf("Error: %s", err.Error()))
				_ = config.SetItemValue(ItemErrorMessage, err.Error())
			}
			config.RemoveItem(ItemNextTimeout)
			config.RemoveItem(ItemTimeRemaining)
			_ = config.SetItemValue(ItemEnabled, false)
			if _, saveErr := s.store.Save(config); saveErr != nil {
				s.config.Logger.Printf("scheduler '%s' failed to persist stop: %v", id, saveErr)
			}
		}
	case dispositionContinue:
		if err != nil {
			s.config.Logger.Printf("scheduler '%s' skipped: %v", id, err)
		}
	}
}

// dispatch loads the configuration, resolves the job implementation and
// runs it. Every failure maps onto a disposition instead of a nested
// recover cascade; an unexpected panic inside the job stops the timer to
// avoid runaway re-firing.
func (s *Service) dispatch(id string, expression *CalendarExpression) (config *document.ItemCollection, result disposition, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			result = dispositionStop
			err = types.NewSchedulerError(types.CodeProcessingError, fmt.Sprintf("job panic: %v", caught))
		}
	}()

	config, loadErr := s.store.Load(id)
	if loadErr != nil || config == nil {
		// 配置已删除：取消定时器
		return nil, dispositionStop, nil
	}
	if !expression.InWindow(time.Now()) {
		return config, dispositionContinue, nil
	}

	jobName := config.GetItemValueString(ItemJobName)
	s.mu.Lock()
	job, ok := s.jobs[jobName]
	s.mu.Unlock()
	if !ok {
		return config, dispositionStop,
			types.NewSchedulerError(types.CodeJobNotFound, fmt.Sprintf("job '%s' not registered", jobName))
	}

	resolved, encItems := s.decryptSecrets(config)
	updated, runErr := job.Run(resolved)
	if runErr != nil {
		// SchedulerError和运行时错误都会停止定时器
		return config, dispositionStop, runErr
	}
	if updated != nil {
		// 密文条目恢复原样，明文密钥不落盘
		for name, enc := range encItems {
			_ = updated.SetItemValue(name, enc)
		}
		config = updated
	}
	if !config.GetItemValueBoolean(ItemEnabled) && config.HasItem(ItemEnabled) {
		// 任务自行终止
		return config, dispositionStop, nil
	}
	return config, dispositionOk, nil
}

// decryptSecrets resolves "enc:" prefixed string items with the engine
// secret key before the configuration reaches the job. The second return
// value maps each decrypted item back to its ciphertext so the persisted
// document keeps the encrypted form.
func (s *Service) decryptSecrets(config *document.ItemCollection) (*document.ItemCollection, map[string]string) {
	encItems := make(map[string]string)
	if s.config.SecretKey == "" {
		return config, encItems
	}
	resolved := config.Clone()
	for _, name := range resolved.GetItemNames() {
		value := resolved.GetItemValueString(name)
		if strings.HasPrefix(value, encPrefix) {
			if plain, err := aes.Decrypt(strings.TrimPrefix(value, encPrefix), []byte(s.config.SecretKey)); err == nil {
				_ = resolved.SetItemValue(name, plain)
				encItems[name] = value
			}
		}
	}
	return resolved, encItems
}

func (s *Service) firingLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.firing[id]
	if !ok {
		lock = &sync.Mutex{}
		s.firing[id] = lock
	}
	return lock
}
