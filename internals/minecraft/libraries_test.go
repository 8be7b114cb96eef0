package minecraft

import (
	"encoding/json"
	"testing"
)

func TestLibrary_Filepath(t *testing.T) {
	tests := []struct {
		name       string
		lib        string
		classifier string
		want       string
	}{
		{"plain", "org.lwjgl:lwjgl:3.3.1", "", "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar"},
		{"classifier in name", "org.lwjgl:lwjgl:3.3.1:natives-linux", "", "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar"},
		{"classifier argument", "org.lwjgl.lwjgl:lwjgl-platform:2.9.4", "natives-osx", "org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-osx.jar"},
		{"extension", "net.minecraftforge:forge:1.12.2-14.23.5.2860:universal@zip", "", "net/minecraftforge/forge/1.12.2-14.23.5.2860/forge-1.12.2-14.23.5.2860-universal.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Library{Name: tt.lib}
			if got := l.Filepath(tt.classifier); got != tt.want {
				t.Errorf("Library.Filepath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLibrary_Natives(t *testing.T) {
	var lib Library
	err := json.Unmarshal([]byte(`{
		"name": "tv.twitch:twitch-platform:5.16",
		"natives": {"linux": "natives-linux", "windows": "natives-windows-${arch}"},
		"extract": {"exclude": ["META-INF/"]},
		"downloads": {
			"classifiers": {
				"natives-linux": {"path": "tv/twitch/twitch-platform/5.16/twitch-platform-5.16-natives-linux.jar", "sha1": "aaa", "size": 10, "url": "https://libraries.minecraft.net/tv/twitch/twitch-platform/5.16/twitch-platform-5.16-natives-linux.jar"},
				"natives-windows-64": {"path": "tv/twitch/twitch-platform/5.16/twitch-platform-5.16-natives-windows-64.jar", "sha1": "bbb", "size": 11, "url": "https://libraries.minecraft.net/tv/twitch/twitch-platform/5.16/twitch-platform-5.16-natives-windows-64.jar"}
			}
		}
	}`), &lib)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := lib.MainArtifact(); ok {
		t.Fatal("natives only library should not have a main artifact")
	}

	native, ok := lib.NativeArtifact(Platform{OS: "windows", Arch: "x64"})
	if !ok || native.Sha1 != "bbb" {
		t.Fatalf("expected the 64 bit windows native, got %+v", native)
	}

	if lib.Applies(Platform{OS: "osx", Arch: "x64"}, nil) {
		t.Fatal("library has no natives for osx and should not apply")
	}

	if lib.Identity() != "tv.twitch:twitch-platform:5.16#natives" {
		t.Fatalf("unexpected identity %s", lib.Identity())
	}
}

func TestLibrary_MavenFallback(t *testing.T) {
	lib := Library{Name: "net.fabricmc:fabric-loader:0.14.9", URL: "https://maven.fabricmc.net"}
	a, ok := lib.MainArtifact()
	if !ok {
		t.Fatal("expected a maven artifact")
	}
	want := "https://maven.fabricmc.net/net/fabricmc/fabric-loader/0.14.9/fabric-loader-0.14.9.jar"
	if a.URL != want {
		t.Fatalf("URL = %s, want %s", a.URL, want)
	}
	if a.Sha1 != "" {
		t.Fatalf("maven artifacts have no known sha1")
	}

	lib = Library{Name: "com.mojang:brigadier:1.0.18"}
	a, _ = lib.MainArtifact()
	if a.URL != DefaultLibrariesURL+"com/mojang/brigadier/1.0.18/brigadier-1.0.18.jar" {
		t.Fatalf("unexpected default url %s", a.URL)
	}
}

func TestExtractRules_ShouldExtract(t *testing.T) {
	tests := []struct {
		name   string
		rules  *ExtractRules
		member string
		want   bool
	}{
		{"no rules", nil, "liblwjgl.so", true},
		{"meta-inf dir", &ExtractRules{Exclude: []string{"META-INF/"}}, "META-INF/MANIFEST.MF", false},
		{"outside excluded dir", &ExtractRules{Exclude: []string{"META-INF/"}}, "liblwjgl.so", true},
		{"glob on name", &ExtractRules{Exclude: []string{"*.txt"}}, "b.txt", false},
		{"glob on nested name", &ExtractRules{Exclude: []string{"*.txt"}}, "docs/b.txt", false},
		{"glob keeps others", &ExtractRules{Exclude: []string{"*.txt"}}, "a.dll", true},
		{"double star", &ExtractRules{Exclude: []string{"**/*.sha1"}}, "linux/x64/liblwjgl.so.sha1", false},
		{"include", &ExtractRules{Include: []string{"*.so"}}, "liblwjgl.so", true},
		{"not included", &ExtractRules{Include: []string{"*.so"}}, "lwjgl.dll", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rules.ShouldExtract(tt.member); got != tt.want {
				t.Errorf("ShouldExtract(%s) = %v, want %v", tt.member, got, tt.want)
			}
		})
	}
}

func TestPlatform(t *testing.T) {
	if NormalizeOS("darwin") != "osx" || NormalizeArch("amd64") != "x64" || NormalizeArch("386") != "x86" || NormalizeArch("arm") != "arm32" {
		t.Fatal("unexpected normalization")
	}
	if (Platform{Arch: "x86"}).Bits() != "32" || (Platform{Arch: "arm64"}).Bits() != "64" {
		t.Fatal("unexpected bits")
	}
}
