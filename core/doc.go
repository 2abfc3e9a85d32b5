// Package core defines the shared data model and contracts of the mortgage
// processing system: applications, tool and agent results, execution records,
// loan decisions and the error taxonomy. Every other package depends on core;
// core depends only on the standard library and the logging package.
package core
