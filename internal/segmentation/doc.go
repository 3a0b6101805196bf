// Package segmentation loads the per-page output of the layout predictors:
// one label raster per prediction together with its class enumeration.
package segmentation
