// Package properties reads flat, string-keyed configuration resources.
//
// A resource is located by name through a Resolver, so the same loading code
// serves files on disk, embedded resources and scheme-prefixed names:
//
//	r := properties.SchemeResolver{
//	    Default: properties.DirResolver{},
//	    Schemes: map[string]properties.Resolver{
//	        "embed": properties.FSResolver{FS: resources},
//	    },
//	}
//	m, err := properties.Load(ctx, r, "embed:application.properties")
//
// Files ending in .yaml or .yml are parsed as YAML with nested mappings
// flattened to dotted keys. Everything else is parsed as a Java-style
// properties file in UTF-8 with ${} expansion disabled.
package properties
