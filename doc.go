// Package imej renders HTML fragments from named templates for a headless
// browser to screenshot. A Service holds the templates, resolves layout
// aliases from configuration and injects a fixed prelude of stylesheet URLs
// into every render:
//
//	svc, err := imej.New(config.Default())
//	if err != nil {
//		return err
//	}
//	if err := svc.Start(ctx); err != nil {
//		return err
//	}
//	html, err := svc.Render("default", map[string]any{"content": "<p>hi</p>"})
package imej
