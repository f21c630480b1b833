// Package ocr defines the boundary between the preprocessing pipeline and
// third-party recognition engines (Tesseract, cloud services, native
// libraries). The interfaces are intentionally small and transport-agnostic:
// a processed raster goes in as either an encoded image or a native pixel
// buffer with an explicit ownership token, and structured text comes back.
// Engine-specific knobs travel as metadata so providers never leak into
// callers.
package ocr
