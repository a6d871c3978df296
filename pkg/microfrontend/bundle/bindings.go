// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package bundle

import (
	"github.com/d5/tengo/v2"
	"github.com/kubelens/kubelens/pkg/microfrontend"
)

// containerObject exposes the render surface to bundle code.
func containerObject(container *microfrontend.Container) tengo.Object {
	return &tengo.Map{
		Value: map[string]tengo.Object{
			"id": &tengo.String{Value: container.ID()},
			"set_content": &tengo.UserFunction{
				Name: "set_content",
				Value: func(args ...tengo.Object) (tengo.Object, error) {
					if len(args) != 1 {
						return nil, tengo.ErrWrongNumArguments
					}

					content, ok := tengo.ToString(args[0])
					if !ok {
						return nil, tengo.ErrInvalidArgumentType{
							Name:     "content",
							Expected: "string",
							Found:    args[0].TypeName(),
						}
					}

					container.SetContent(content)
					return tengo.UndefinedValue, nil
				},
			},
			"append_line": &tengo.UserFunction{
				Name: "append_line",
				Value: func(args ...tengo.Object) (tengo.Object, error) {
					if len(args) != 1 {
						return nil, tengo.ErrWrongNumArguments
					}

					line, ok := tengo.ToString(args[0])
					if !ok {
						return nil, tengo.ErrInvalidArgumentType{
							Name:     "line",
							Expected: "string",
							Found:    args[0].TypeName(),
						}
					}

					container.AppendLine(line)
					return tengo.UndefinedValue, nil
				},
			},
		},
	}
}

// contextObject is the capability surface handed to the mount hook: the
// extension's identity fields plus exactly notify and get_config.
func contextObject(mountCtx *microfrontend.MountContext) tengo.Object {
	return &tengo.Map{
		Value: map[string]tengo.Object{
			"extension": &tengo.String{Value: mountCtx.Extension},
			"root_id":   &tengo.String{Value: mountCtx.RootID},
			"config":    configObject(mountCtx.Config),
			"notify": &tengo.UserFunction{
				Name: "notify",
				Value: func(args ...tengo.Object) (tengo.Object, error) {
					if len(args) < 1 || len(args) > 2 {
						return nil, tengo.ErrWrongNumArguments
					}

					message, ok := tengo.ToString(args[0])
					if !ok {
						return nil, tengo.ErrInvalidArgumentType{
							Name:     "message",
							Expected: "string",
							Found:    args[0].TypeName(),
						}
					}

					severity := string(microfrontend.SeverityInfo)
					if len(args) == 2 {
						if severity, ok = tengo.ToString(args[1]); !ok {
							return nil, tengo.ErrInvalidArgumentType{
								Name:     "severity",
								Expected: "string",
								Found:    args[1].TypeName(),
							}
						}
					}

					mountCtx.API.Notify(message, microfrontend.ParseSeverity(severity))
					return tengo.UndefinedValue, nil
				},
			},
			"get_config": &tengo.UserFunction{
				Name: "get_config",
				Value: func(args ...tengo.Object) (tengo.Object, error) {
					if len(args) != 0 {
						return nil, tengo.ErrWrongNumArguments
					}

					return configObject(mountCtx.API.Config()), nil
				},
			},
		},
	}
}

func configObject(config map[string]string) tengo.Object {
	values := make(map[string]tengo.Object, len(config))
	for key, value := range config {
		values[key] = &tengo.String{Value: value}
	}

	return &tengo.Map{Value: values}
}
