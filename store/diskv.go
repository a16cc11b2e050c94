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

package store

import (
	"path/filepath"
	"sync"

	"github.com/peterbourgon/diskv/v3"
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// Diskv 文件文档存储
// Every document is one file keyed by its unique id, serialized with the
// typed storage envelope. Queries scan the key space; the store is meant
// for small installations and tests, not for large archives.
type Diskv struct {
	mu sync.RWMutex
	kv *diskv.Diskv
}

var _ types.DocumentStore = (*Diskv)(nil)

// NewDiskv 创建文件存储
func NewDiskv(path string) *Diskv {
	flatTransform := func(s string) []string { return []string{} }
	return &Diskv{
		kv: diskv.New(diskv.Options{
			BasePath:     filepath.Join(path, "documents"),
			Transform:    flatTransform,
			CacheSizeMax: 1024 * 1024,
		}),
	}
}

// Save 保存文档，补写 $uniqueid/$created/$modified
func (s *Diskv) Save(doc *document.ItemCollection) (*document.ItemCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := stamp(doc.Clone())
	data, err := document.Marshal(stored)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Write(stored.GetUniqueID(), data); err != nil {
		return nil, err
	}
	return stored, nil
}

// Load 按ID加载文档，未找到返回nil
func (s *Diskv) Load(id string) (*document.ItemCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.kv.Has(id) {
		return nil, nil
	}
	data, err := s.kv.Read(id)
	if err != nil {
		return nil, err
	}
	return document.Unmarshal(data)
}

// Find 按查询语句分页查找
func (s *Diskv) Find(query string, pageSize int, pageIndex int) ([]*document.ItemCollection, error) {
	predicate, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	matched, err := s.scan(predicate)
	if err != nil {
		return nil, err
	}
	sortByCreation(matched)
	return clonePage(matched, pageSize, pageIndex), nil
}

// GetDocumentsByType 按类型查找
func (s *Diskv) GetDocumentsByType(docType string) ([]*document.ItemCollection, error) {
	matched, err := s.scan(func(doc *document.ItemCollection) bool {
		return doc.GetType() == docType
	})
	if err != nil {
		return nil, err
	}
	sortByCreation(matched)
	return matched, nil
}

// Delete 按ID删除文档
func (s *Diskv) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Erase(id)
}

// scan 遍历全部键并应用谓词
func (s *Diskv) scan(predicate Predicate) ([]*document.ItemCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*document.ItemCollection
	for key := range s.kv.Keys(nil) {
		data, err := s.kv.Read(key)
		if err != nil {
			return nil, err
		}
		doc, err := document.Unmarshal(data)
		if err != nil {
			return nil, err
		}
		if predicate(doc) {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}
