// Package lifecycle drives controllers, extensions and the renderer through
// page navigations.
//
// For each navigation the Manager either updates the current page in place
// (new route params, same controller and view) or tears it down and mounts
// a new one:
//
//	remount: deactivate → destroy → unmount → init → load → mount → activate
//	update:  update → renderer update → activate
//
// Only one page is managed at a time. Page handlers run before and after
// every navigation; ScrollHandler uses them to save and restore the scroll
// position.
package lifecycle
