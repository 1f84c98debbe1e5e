// Package catalog is the static registry of map products ("analyses") and the
// model data series behind them.
//
// # MICAPS Data Directories
//
// Gridded model output reaches forecast desks through the MICAPS distribution
// tree, where each (model, variable, level) series lives under a fixed
// directory:
//
//	ECMWF_HR/RAIN24            24-hour accumulated precipitation, high-res ECMWF
//	GRAPES_GFS/HGT/500         500-hPa geopotential height, GRAPES global model
//	SHANGHAI_HR/UGRD/850       850-hPa U wind, Shanghai rapid-refresh
//
// A map product reads one or more such series per model. The catalog keys them
// by (analysis, model): the analysis names the product and the model selects
// the table row holding the ordered directory list. Order matters: consumers
// index positionally (first entry is the product's primary field, later
// entries are overlays) and ignore surplus entries, so one row can serve
// several products.
//
// # Filenames
//
// Within a directory every file is one forecast step of one model run, named
//
//	YYMMDDHH.FFF    e.g. 18042008.003 = run 2018-04-20 08Z, forecast hour 3
//
// The run token is two-digit year, month, day and hour of the initial time;
// the suffix is the three-digit zero-padded forecast hour. [Filename] renders
// this form from an [InitialTime] and an hour.
//
// # Tables
//
// Tables ship embedded in the binary (catalog.yaml) and are parsed once into
// read-only state; operators may substitute a schema-checked override file via
// [Load]. Model lookup is case-insensitive and whitespace-tolerant because
// model names arrive typed by forecasters or copied from portal URLs.
package catalog
