// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package export renders meeting minutes into downloadable artifacts.

XLSX produces a workbook with three sheets:

  - Resumen: assembly metadata, quorum and conclusions
  - Asistentes: one row per attendee with unit, coefficient and check-in time
  - Votaciones: one row per vote option with count, weight and percentage

PDF rendering is not provided.
*/
package export
