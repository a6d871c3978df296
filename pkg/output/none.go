// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package output

import (
	"fmt"
	"io"
)

// NoneFormatter formats with minimal processing: strings are printed as-is,
// everything else through fmt's default formatting.
type NoneFormatter struct {
}

func (f *NoneFormatter) Kind() Format {
	return NoneFormat
}

func (f *NoneFormatter) Format(obj interface{}, writer io.Writer, _ interface{}) error {
	if obj == nil {
		return nil
	}

	var err error
	if s, ok := obj.(string); ok {
		_, err = fmt.Fprint(writer, s)
	} else {
		_, err = fmt.Fprintf(writer, "%v", obj)
	}

	return err
}

var _ Formatter = (*NoneFormatter)(nil)
