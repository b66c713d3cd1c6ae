// Package websocket streams simulation results to browser and CLI watchers.
//
// A central Hub owns every connection. Clients subscribe to one channel when
// they connect (/ws?channel=spec). Results produced for a named mission are
// published to that mission's channel, ad-hoc simulations go to "adhoc", and
// every result is mirrored to "all".
//
// Outgoing messages are JSON:
//
//	{"channel":"spec","event":"simulation_result","result":{...}}
//	{"channel":"all","event":"catalog_changed","data":"spec"}
//
// Incoming messages are read only to keep the connection alive and are
// otherwise ignored.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("channel"))
//	})
//
// Client bookkeeping is only touched by the goroutine running Run; Publish
// and BroadcastEvent never block the caller and drop messages when the hub
// queue is full.
package websocket
