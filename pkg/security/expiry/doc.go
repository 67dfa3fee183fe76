// Package expiry watches the served certificate and warns before it expires.
//
// The Monitor checks the leaf once when started and then on a cron schedule
// (standard five-field syntax or descriptors such as "@daily"). Each check
// publishes the certificate's NotAfter time and logs a warning once fewer than
// the configured number of days remain. Certificates are never rotated.
package expiry
