// Package log provides named loggers for efinder services on top of logrus.
//
// Every component asks for a logger by a stable name and logs through the
// Infof/Warnf/Errorf/Debugf helpers:
//
//	l := log.ForService("search")
//	l.Infof("fetched %d results", n)
//	l.Debugf("raw query: %s", q) // only printed when debug is on
//
// Debug output can be enabled for everything (SetGlobalDebug, wired to the
// --debug flag) or for a single service (EnableDebugFor). Lines carry a
// "[name>]" prefix plus a "service" field, so they stay grep-friendly in text
// mode and filterable in JSON mode (SetJSON).
//
// Tests can redirect output with SetOutput and a bytes.Buffer.
package log
