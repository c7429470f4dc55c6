package chart

import (
	"github.com/pkg/browser"
)

// Opener 请求展示生成的图表
type Opener interface {
	Open(path string) error
}

// BrowserOpener opens the file in the default browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(path string) error { return browser.OpenFile(path) }

// NopOpener is used when render.open is false.
type NopOpener struct{}

func (NopOpener) Open(string) error { return nil }
