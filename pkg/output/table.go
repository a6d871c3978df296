// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package output

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"text/template"
)

// Column describes a single table column: a heading plus a text/template
// expression evaluated against each row object to produce the cell value.
type Column struct {
	Heading       string
	ValueTemplate string

	// Transformer optionally post-processes the rendered cell value,
	// e.g. to colorize it.
	Transformer func(string) string
}

type TableFormatterOptions struct {
	Columns []Column
}

type TableFormatter struct {
}

func (f *TableFormatter) Kind() Format {
	return TableFormat
}

func (f *TableFormatter) Format(obj interface{}, writer io.Writer, opts interface{}) error {
	options, ok := opts.(TableFormatterOptions)
	if !ok {
		return errors.New("table formatter requires TableFormatterOptions")
	}

	if len(options.Columns) == 0 {
		return errors.New("no columns were defined, table formatter cannot be used")
	}

	rows, err := asSlice(obj)
	if err != nil {
		return err
	}

	headings := make([]string, 0, len(options.Columns))
	templates := make([]*template.Template, 0, len(options.Columns))
	for _, column := range options.Columns {
		headings = append(headings, column.Heading)

		tmpl, err := template.New(column.Heading).Parse(column.ValueTemplate)
		if err != nil {
			return err
		}
		templates = append(templates, tmpl)
	}

	tabs := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	if _, err := tabs.Write([]byte(strings.Join(headings, "\t") + "\n")); err != nil {
		return err
	}

	for _, row := range rows {
		cells := make([]string, 0, len(templates))
		for i, tmpl := range templates {
			var sb strings.Builder
			if err := tmpl.Execute(&sb, row); err != nil {
				return err
			}

			cell := sb.String()
			if options.Columns[i].Transformer != nil {
				cell = options.Columns[i].Transformer(cell)
			}
			cells = append(cells, cell)
		}

		if _, err := tabs.Write([]byte(strings.Join(cells, "\t") + "\n")); err != nil {
			return err
		}
	}

	return tabs.Flush()
}

// asSlice normalizes the formatted object to a slice of rows. A non-slice
// value formats as a single-row table.
func asSlice(obj interface{}) ([]interface{}, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []interface{}{obj}, nil
	}

	rows := make([]interface{}, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		rows = append(rows, v.Index(i).Interface())
	}

	return rows, nil
}

var _ Formatter = (*TableFormatter)(nil)
