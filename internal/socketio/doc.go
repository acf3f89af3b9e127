// Package socketio is a small Socket.IO v5 client over the Engine.IO v4
// websocket transport.
//
// It only supports what the generator server's log stream needs: the default
// namespace, server pings, and string events. Reconnects follow an
// exponential backoff and do not replay anything missed while offline.
package socketio
