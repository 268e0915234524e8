// Package database embed dosyası — migration SQL dosyalarını binary'ye gömer.
//
// //go:embed directive'i derleme zamanında dosyaları binary'nin içine gömer;
// deploy edilen binary yanında migration dosyalarına ihtiyaç duymaz.
package database

import "embed"

// EmbeddedMigrations, migrations/ dizinindeki SQL dosyalarını içerir.
// Kullanım: fs.Sub(EmbeddedMigrations, "migrations") ile alt dizine eriş.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
