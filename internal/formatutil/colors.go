// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package formatutil colors and sanitizes the terminal output of the
// command-line tools. Colors degrade to plain text when stdout is not a
// terminal.
package formatutil

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/term"
)

var (
	Bold   = Color("1")
	Faint  = Color("2")
	Red    = Color("1;31")
	Green  = Color("1;32")
	Yellow = Color("1;33")
	Purple = Color("1;34")
)

// Color returns a formatter wrapping its arguments in the ANSI escape for
// code when writing to a terminal.
func Color(code string) func(...any) string {
	return func(args ...any) string {
		s := fmt.Sprint(args...)
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return s
		}
		return "\033[" + code + "m" + s + "\033[0m"
	}
}

// Sanitize escapes control characters, so model-provided names cannot smuggle
// escape sequences into the output.
func Sanitize(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}

// SanitizeRepr sanitizes the string representation of an object.
func SanitizeRepr(s fmt.Stringer) string {
	return Sanitize(s.String())
}
