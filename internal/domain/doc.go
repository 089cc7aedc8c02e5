// Package domain models animal migration tracking data and the two pure
// transformations the dashboard is built on.
//
// # Data Source
//
// Tracking data arrives as a single CSV exported from a telemetry repository
// (one row per GPS fix). Only four columns are used:
//
//	timestamp      fix time, e.g. "2019-03-14 06:00:00" (UTC)
//	id_year        subject and season, e.g. "91732_2019"
//	location-long  WGS-84 longitude in decimal degrees
//	location-lat   WGS-84 latitude in decimal degrees
//
// # Keys
//
// An id_year value identifies one tracked subject within one calendar year.
// The text form is "<id>_<year>": everything before the first underscore is the
// subject id, everything after it must be a run of digits. Keys are parsed once
// at load time into [Key] so a malformed value fails the load instead of
// producing a wrong cutoff date later. See [ParseKey].
//
// The key year and the timestamp year usually agree but need not: a season
// that runs past New Year keeps the key of the year it started in. Year range
// filtering ([Options]) uses the timestamp year; cutoff dates ([CutoffDate])
// use the key year.
//
// # Week Cutoff
//
// The week slider selects how much of a season is "known so far". Week N maps
// to January 1 of the key year plus N*7 days; only fixes strictly before that
// instant are drawn. Week 0 therefore shows nothing and week 52 shows all but
// the last day or two of the year.
package domain
