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

package document

import (
	"sort"
)

// FileData 文件附件
// Attachments live under the reserved $file item as
// name -> [contentType, content, attributes].
type FileData struct {
	//Name 文件名
	Name string
	//ContentType MIME类型
	ContentType string
	//Content 文件内容
	Content []byte
	//Attributes 自定义属性
	Attributes map[string][]interface{}
}

// fileMap returns the attachment map stored under $file, or nil.
func (ic *ItemCollection) fileMap() map[string]interface{} {
	values := ic.rawValues(ItemFile)
	if len(values) == 0 {
		return nil
	}
	if m, ok := values[0].(map[string]interface{}); ok {
		return m
	}
	return nil
}

// writeFileMap persists the attachment map and keeps the derived
// $file.count and $file.names items consistent. Empty names and nil entries
// are purged before every write.
func (ic *ItemCollection) writeFileMap(files map[string]interface{}) {
	for name, entry := range files {
		if name == "" || entry == nil {
			delete(files, name)
		}
	}
	if len(files) == 0 {
		ic.setNormalized(ItemFile, nil)
		ic.setNormalized(ItemFileCount, []interface{}{0})
		ic.setNormalized(ItemFileNames, nil)
		return
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	nameValues := make([]interface{}, len(names))
	for i, n := range names {
		nameValues[i] = n
	}
	ic.items[ItemFile] = []interface{}{files}
	ic.setNormalized(ItemFileCount, []interface{}{len(files)})
	ic.setNormalized(ItemFileNames, nameValues)
}

// AddFileData attaches a file. An existing attachment with the same name is
// replaced.
func (ic *ItemCollection) AddFileData(file FileData) error {
	if file.Name == "" {
		return ErrInvalidName
	}
	attributes := file.Attributes
	if attributes == nil {
		attributes = map[string][]interface{}{}
	}
	attrMap := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		n, err := normalizeValue(v)
		if err != nil {
			return err
		}
		attrMap[k] = n
	}
	files := ic.fileMap()
	if files == nil {
		files = make(map[string]interface{})
	}
	content := make([]byte, len(file.Content))
	copy(content, file.Content)
	files[file.Name] = []interface{}{file.ContentType, content, attrMap}
	ic.writeFileMap(files)
	return nil
}

// GetFileData returns the named attachment, or nil.
func (ic *ItemCollection) GetFileData(name string) *FileData {
	files := ic.fileMap()
	if files == nil {
		return nil
	}
	entry, ok := files[name].([]interface{})
	if !ok || len(entry) < 2 {
		return nil
	}
	file := &FileData{Name: name}
	file.ContentType, _ = entry[0].(string)
	if content, ok := entry[1].([]byte); ok {
		file.Content = content
	}
	if len(entry) > 2 {
		if attrs, ok := entry[2].(map[string]interface{}); ok {
			file.Attributes = make(map[string][]interface{}, len(attrs))
			for k, v := range attrs {
				if list, ok := v.([]interface{}); ok {
					file.Attributes[k] = list
				} else {
					file.Attributes[k] = []interface{}{v}
				}
			}
		}
	}
	return file
}

// GetFileNames returns the sorted names of all attachments.
func (ic *ItemCollection) GetFileNames() []string {
	return ic.GetItemValueList(ItemFileNames)
}

// RemoveFile detaches the named file.
func (ic *ItemCollection) RemoveFile(name string) {
	files := ic.fileMap()
	if files == nil {
		return
	}
	delete(files, name)
	ic.writeFileMap(files)
}
