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
	"time"
)

// Config defines the configuration for the workflow engine.
type Config struct {
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// ScriptMaxExecutionTime is the maximum execution time for rule scripts,
	// defaulting to 2000 milliseconds.
	ScriptMaxExecutionTime time.Duration
	// Properties are global properties in key-value format.
	// Text substitution templates can read them with <propertyvalue> directives.
	Properties map[string]string
	// MaxActiveSchedulers caps the number of schedulers started by
	// StartAllSchedulers, defaulting to 100.
	MaxActiveSchedulers int
	// AdminJobBlockSize is the page size used by admin jobs when reading
	// documents from the store, defaulting to 500.
	AdminJobBlockSize int
	// SecretKey is an AES-256 key used for decrypting "enc:" prefixed values
	// in scheduler configuration documents. Empty disables decryption.
	SecretKey string
}

// Option 配置选项
type Option func(*Config) error

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
		Properties:             make(map[string]string),
		MaxActiveSchedulers:    100,
		AdminJobBlockSize:      500,
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

// WithLogger 设置日志实现
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithScriptMaxExecutionTime 设置脚本最大执行时间
func WithScriptMaxExecutionTime(d time.Duration) Option {
	return func(c *Config) error {
		c.ScriptMaxExecutionTime = d
		return nil
	}
}

// WithProperties 设置全局属性
func WithProperties(properties map[string]string) Option {
	return func(c *Config) error {
		c.Properties = properties
		return nil
	}
}

// WithMaxActiveSchedulers 设置最大并行调度数量
func WithMaxActiveSchedulers(max int) Option {
	return func(c *Config) error {
		c.MaxActiveSchedulers = max
		return nil
	}
}

// WithAdminJobBlockSize 设置管理任务分页大小
func WithAdminJobBlockSize(size int) Option {
	return func(c *Config) error {
		c.AdminJobBlockSize = size
		return nil
	}
}

// WithSecretKey 设置配置密文解密密钥
func WithSecretKey(key string) Option {
	return func(c *Config) error {
		c.SecretKey = key
		return nil
	}
}
