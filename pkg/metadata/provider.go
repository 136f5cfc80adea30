// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metadata

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"sort"

	"github.com/walteh/flatrc/pkg/registry"
	"gitlab.com/tozd/go/errors"
)

var (
	// 🚫 ErrDuplicateProvider indicates two providers registered the same name
	ErrDuplicateProvider = errors.New("duplicate metadata provider")

	// 🚫 ErrUnknownProvider indicates a requested provider name is not registered
	ErrUnknownProvider = errors.New("unknown metadata provider")
)

// 🔌 Provider attaches one metadata field to a record. Providers must not
// share mutable state across records; they receive exactly one record at a
// time and may read fields earlier providers (or built-ins) wrote.
type Provider interface {
	// 📛 Name is the unique provider name, also the metadata key it writes
	Name() string

	// 📝 Description is a one-line human description for the query surface
	Description() string

	// 🎚️ EnabledByDefault reports whether the provider runs without being
	// requested explicitly
	EnabledByDefault() bool

	// 📎 Attach computes and writes the provider's field. A failure is
	// isolated: the record stays valid and later providers still run.
	Attach(ctx context.Context, record *registry.FileRecord) error
}

// 🗺️ Providers is the closed capability table for one run. Registration
// happens once at process start; the core only ever consumes the table.
type Providers struct {
	order  []string
	byName map[string]Provider
}

// 🏭 NewProviders creates an empty provider table
func NewProviders() *Providers {
	return &Providers{
		byName: make(map[string]Provider),
	}
}

// 📝 Register adds a provider. Duplicate names are a configuration error.
func (p *Providers) Register(provider Provider) error {
	name := provider.Name()
	if _, ok := p.byName[name]; ok {
		return errors.Errorf("%w: %q", ErrDuplicateProvider, name)
	}
	p.byName[name] = provider
	p.order = append(p.order, name)
	return nil
}

// 🎯 Get returns a provider by name
func (p *Providers) Get(name string) (Provider, bool) {
	provider, ok := p.byName[name]
	return provider, ok
}

// 📋 List returns all providers in registration order
func (p *Providers) List() []Provider {
	providers := make([]Provider, 0, len(p.order))
	for _, name := range p.order {
		providers = append(providers, p.byName[name])
	}
	return providers
}

// 🏗️ BuiltinProviders returns the providers that ship with flatrc, in the
// order they should be registered.
func BuiltinProviders() []Provider {
	return []Provider{
		hashProvider{},
		md5Provider{},
		mimeProvider{},
	}
}

// 🏭 DefaultProviders returns a table with every built-in provider already
// registered.
func DefaultProviders() *Providers {
	table := NewProviders()
	for _, provider := range BuiltinProviders() {
		// Built-in names are unique by construction.
		if err := table.Register(provider); err != nil {
			panic(err)
		}
	}
	return table
}

// 🔐 hashProvider attaches a SHA-256 checksum of the decoded content
type hashProvider struct{}

func (hashProvider) Name() string           { return "hash" }
func (hashProvider) Description() string    { return "SHA-256 checksum of the file content" }
func (hashProvider) EnabledByDefault() bool { return true }

func (hashProvider) Attach(ctx context.Context, record *registry.FileRecord) error {
	if record.Binary {
		return nil
	}
	sum := sha256.Sum256([]byte(record.Content))
	record.Metadata["hash"] = hex.EncodeToString(sum[:])
	return nil
}

// 🔐 md5Provider attaches an MD5 checksum, off by default (legacy consumers)
type md5Provider struct{}

func (md5Provider) Name() string           { return "md5" }
func (md5Provider) Description() string    { return "MD5 checksum of the file content" }
func (md5Provider) EnabledByDefault() bool { return false }

func (md5Provider) Attach(ctx context.Context, record *registry.FileRecord) error {
	if record.Binary {
		return nil
	}
	sum := md5.Sum([]byte(record.Content))
	record.Metadata["md5"] = hex.EncodeToString(sum[:])
	return nil
}

// 🏷️ mimeProvider attaches the MIME type guessed from the extension
type mimeProvider struct{}

func (mimeProvider) Name() string           { return "mimetype" }
func (mimeProvider) Description() string    { return "MIME type guessed from the file extension" }
func (mimeProvider) EnabledByDefault() bool { return false }

func (mimeProvider) Attach(ctx context.Context, record *registry.FileRecord) error {
	if record.Extension == "" {
		return nil
	}
	mimeType := mime.TypeByExtension("." + record.Extension)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	record.Metadata["mimetype"] = mimeType
	return nil
}

// 📇 Describe returns a read-only snapshot of the capability table for the
// reporting surface, sorted by name.
func (p *Providers) Describe() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(p.order))
	for _, name := range p.order {
		provider := p.byName[name]
		infos = append(infos, ProviderInfo{
			Name:             provider.Name(),
			Description:      provider.Description(),
			EnabledByDefault: provider.EnabledByDefault(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// 📇 ProviderInfo describes one registered provider
type ProviderInfo struct {
	Name             string
	Description      string
	EnabledByDefault bool
}
