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

package aes

import (
	"testing"

	"github.com/rulego/docflow/test/assert"
)

func TestEncryptDecrypt(t *testing.T) {
	key := []byte("scheduler-secret")
	ciphertext, err := Encrypt("smtp-password", key)
	assert.Nil(t, err)
	assert.NotEqual(t, "smtp-password", ciphertext)

	plaintext, err := Decrypt(ciphertext, key)
	assert.Nil(t, err)
	assert.Equal(t, "smtp-password", plaintext)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := Decrypt("not-hex", []byte("key"))
	assert.NotNil(t, err)

	_, err = Decrypt("abcd", []byte("key"))
	assert.NotNil(t, err)
}
