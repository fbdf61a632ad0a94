package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "bare package excluded",
			content: "import x from 'lodash'\nimport y from './y'\n",
			want:    []string{"./y"},
		},
		{
			name:    "named and namespace imports",
			content: "import { a, b } from \"../lib/ab\";\nimport * as api from './api';\nimport React, { useState } from 'react';",
			want:    []string{"../lib/ab", "./api"},
		},
		{
			name:    "side effect import",
			content: "import './styles.css';",
			want:    []string{"./styles.css"},
		},
		{
			name:    "require calls",
			content: "const fs = require('fs');\nconst util = require( \"./util\" );",
			want:    []string{"./util"},
		},
		{
			name:    "absolute path kept",
			content: "import cfg from '/config/app'",
			want:    []string{"/config/app"},
		},
		{
			name:    "duplicates removed, first occurrence kept",
			content: "import a from './a'\nimport b from './b'\nconst a2 = require('./a')\nimport './b'",
			want:    []string{"./a", "./b"},
		},
		{
			name:    "imports listed before requires",
			content: "const r = require('./r')\nimport i from './i'",
			want:    []string{"./i", "./r"},
		},
		{
			name:    "commented import still matches",
			content: "// import old from './old'",
			want:    []string{"./old"},
		},
		{
			name:    "dynamic import missed",
			content: "const m = await import(`./pages/${name}`)",
			want:    []string{},
		},
		{
			name:    "no imports",
			content: "export const x = 1",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.content)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsLocal(t *testing.T) {
	assert.True(t, IsLocal("./a"))
	assert.True(t, IsLocal("../a"))
	assert.True(t, IsLocal("/abs"))
	assert.False(t, IsLocal("react"))
	assert.False(t, IsLocal("@scope/pkg"))
}
