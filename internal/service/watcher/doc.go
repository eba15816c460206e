// Package watcher polls the scale server and logs every scale change
// together with the resource table expected at the new scale.
package watcher
