// Package config provides the declarative configuration of transform
// pipelines.
//
// A pipeline document lists the steps applied to the partial source
// documents, plus optional logging and tracing settings:
//
//	apiVersion: treejoin.io/v1
//	kind: Pipeline
//	metadata:
//	  name: team
//	spec:
//	  steps:
//	    - type: join
//	      category: team
//	      keyField: name
//	    - type: promote
//	      key: private
//	      when: has(doc.team)
//	    - type: prune
//
// Values may reference environment variables with ${VAR} or
// ${VAR:-default}; $$ yields a literal dollar sign.
//
// # Loading
//
//	cfg, err := config.LoadConfig("pipeline.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    return err
//	}
//
// # File Watching
//
// Watcher reloads the file on change and hands every valid configuration
// to its callback:
//
//	watcher, err := config.NewWatcher(path, runner.OnConfigChange,
//	    config.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer watcher.Stop()
//	if err := watcher.Start(ctx); err != nil {
//	    return err
//	}
package config
