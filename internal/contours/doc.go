// Package contours turns label rasters into classified vector geometry.
//
// A Pipeline is an ordered list of Stages run once per semantic class on that
// class's isolated mask. The usual region pipeline is
//
//	Contours{Ink, Opening, Dilator} -> Decompose -> FilterByArea
//
// and the separator pipeline is
//
//	Contours{} -> Simplify{0} -> EstimatePolyline{dir} -> Simplify{tol}
//
// MultiClassConstructor runs a pipeline for every non-background class and
// FoldOperator chains cross-class filters such as HeuristicFrameDetector onto
// the combined result.
package contours
