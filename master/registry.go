package master

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// sessions tracks the live session per network adapter. A second Open on an
// adapter that already has a live session fails with ecat.ErrAdapterBusy;
// independent adapters run independent sessions.
var sessions = xsync.NewMapOf[string, *Session]()

// reserveAdapter claims ifname for s. It returns false if another live
// session already owns the adapter.
func reserveAdapter(ifname string, s *Session) bool {
	_, loaded := sessions.LoadOrStore(ifname, s)
	return !loaded
}

// releaseAdapter drops the claim on ifname, but only when s still owns it.
func releaseAdapter(ifname string, s *Session) {
	sessions.Compute(ifname, func(cur *Session, loaded bool) (*Session, bool) {
		if !loaded || cur != s {
			return cur, !loaded
		}
		return nil, true // delete
	})
}
