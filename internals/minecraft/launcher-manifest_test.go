package minecraft_test

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/minepkg/launchcore/internals/minecraft"
)

func ExampleMerge() {
	parent := &minecraft.LaunchManifest{
		ID:        "1.18.2",
		MainClass: "net.minecraft.client.main.Main",
		Libraries: []minecraft.Library{
			{Name: "commons-logging:commons-logging:1.2"},
			{Name: "org.ow2.asm:asm:9.1"},
		},
	}
	child := &minecraft.LaunchManifest{
		ID:           "fabric-loader-0.14.9-1.18.2",
		InheritsFrom: "1.18.2",
		MainClass:    "net.fabricmc.loader.impl.launch.knot.KnotClient",
		Libraries: []minecraft.Library{
			{Name: "net.fabricmc:fabric-loader:0.14.9", URL: "https://maven.fabricmc.net/"},
			{Name: "org.ow2.asm:asm:9.1", URL: "https://maven.fabricmc.net/"},
		},
	}
	merged := minecraft.Merge(parent, child)

	fmt.Println("ID:", merged.ID)
	fmt.Println("MainClass:", merged.MainClass)
	fmt.Println("Libraries:")
	for _, lib := range merged.Libraries {
		if lib.URL != "" {
			fmt.Println(" - ", lib.Name, "from", lib.URL)
			continue
		}
		fmt.Println(" - ", lib.Name)
	}
	// Output:
	// ID: fabric-loader-0.14.9-1.18.2
	// MainClass: net.fabricmc.loader.impl.launch.knot.KnotClient
	// Libraries:
	//  -  commons-logging:commons-logging:1.2
	//  -  org.ow2.asm:asm:9.1 from https://maven.fabricmc.net/
	//  -  net.fabricmc:fabric-loader:0.14.9 from https://maven.fabricmc.net/
}

func mustManifest(t *testing.T, raw string) *minecraft.LaunchManifest {
	t.Helper()
	m := &minecraft.LaunchManifest{}
	if err := json.Unmarshal([]byte(raw), m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	parent := mustManifest(t, `{"id": "a", "libraries": [{"name": "a:a:1"}], "downloads": {"client": {"url": "https://a/a.jar"}}}`)
	child := mustManifest(t, `{"id": "b", "libraries": [{"name": "b:b:1"}], "downloads": {"client": {"url": "https://b/b.jar"}}}`)

	merged := minecraft.Merge(parent, child)
	merged.Libraries[0].Name = "changed"

	if parent.Libraries[0].Name != "a:a:1" {
		t.Fatalf("parent libraries were modified")
	}
	if parent.Downloads["client"].URL != "https://a/a.jar" {
		t.Fatalf("parent downloads were modified")
	}
	if merged.Downloads["client"].URL != "https://b/b.jar" {
		t.Fatalf("expected child download to win, got %s", merged.Downloads["client"].URL)
	}
}

func TestMergeIsAssociative(t *testing.T) {
	a := mustManifest(t, `{
		"id": "a",
		"type": "release",
		"mainClass": "A",
		"minimumLauncherVersion": 21,
		"assetIndex": {"id": "1", "url": "https://a/1.json"},
		"arguments": {"game": ["--username", "${auth_player_name}"], "jvm": ["-cp", "${classpath}"]},
		"libraries": [{"name": "x:x:1"}, {"name": "y:y:1"}]
	}`)
	b := mustManifest(t, `{
		"id": "b",
		"inheritsFrom": "a",
		"mainClass": "B",
		"arguments": {"game": ["--tweakClass", "b.Tweaker"]},
		"libraries": [{"name": "y:y:1", "url": "https://b/"}, {"name": "z:z:1"}]
	}`)
	c := mustManifest(t, `{
		"id": "c",
		"inheritsFrom": "b",
		"type": "custom",
		"arguments": {"game": ["--tweakClass", "c.Tweaker"], "jvm": ["-Dc=1"]},
		"libraries": [{"name": "x:x:1", "url": "https://c/"}]
	}`)

	left := minecraft.Merge(minecraft.Merge(a, b), c)
	right := minecraft.Merge(a, minecraft.Merge(b, c))

	if !reflect.DeepEqual(left, right) {
		l, _ := json.Marshal(left)
		r, _ := json.Marshal(right)
		t.Fatalf("merge is not associative:\n%s\n%s", l, r)
	}

	if left.MainClass != "B" || left.Type != "custom" || left.ID != "c" {
		t.Fatalf("unexpected scalars %s %s %s", left.MainClass, left.Type, left.ID)
	}
	wantLibs := []string{"x:x:1 https://c/", "y:y:1 https://b/", "z:z:1 "}
	for i, lib := range left.Libraries {
		if got := lib.Name + " " + lib.URL; got != wantLibs[i] {
			t.Errorf("library %d = %q, want %q", i, got, wantLibs[i])
		}
	}
	wantGame := []string{"--username", "${auth_player_name}", "--tweakClass", "b.Tweaker", "--tweakClass", "c.Tweaker"}
	gotGame := left.Arguments.Game.Tokens(minecraft.Platform{}, nil)
	if !reflect.DeepEqual(gotGame, wantGame) {
		t.Fatalf("game args = %v, want %v", gotGame, wantGame)
	}
}

func TestMergeChildRestatesLibrary(t *testing.T) {
	parent := mustManifest(t, `{"id": "p", "libraries": [
		{"name": "org.example:lib:1.0"},
		{"name": "org.example:other:1.0"}
	]}`)
	child := mustManifest(t, `{"id": "c", "libraries": [
		{"name": "org.example:lib:1.0", "rules": [
			{"action": "allow"},
			{"action": "disallow", "os": {"name": "linux"}}
		]}
	]}`)

	merged := minecraft.Merge(parent, child)
	if len(merged.Libraries) != 2 {
		t.Fatalf("expected 2 libraries, got %d", len(merged.Libraries))
	}
	if merged.Libraries[0].Name != "org.example:lib:1.0" {
		t.Fatalf("restated library lost its position: %s", merged.Libraries[0].Name)
	}

	linux := minecraft.Platform{OS: "linux", Arch: "x64"}
	windows := minecraft.Platform{OS: "windows", Arch: "x64"}
	if merged.Libraries[0].Applies(linux, nil) {
		t.Errorf("library is still required on linux")
	}
	if !merged.Libraries[0].Applies(windows, nil) {
		t.Errorf("library is not required on windows")
	}
}

func TestMergeKeepsNativesCarrier(t *testing.T) {
	parent := mustManifest(t, `{"id": "p", "libraries": [
		{"name": "org.lwjgl.lwjgl:lwjgl-platform:2.9.4"},
		{"name": "org.lwjgl.lwjgl:lwjgl-platform:2.9.4", "natives": {"linux": "natives-linux"}}
	]}`)

	merged := minecraft.Merge(parent, &minecraft.LaunchManifest{ID: "c"})
	if len(merged.Libraries) != 2 {
		t.Fatalf("expected the jar and the natives carrier, got %d libraries", len(merged.Libraries))
	}
}

func TestMergeDeduplicatesArguments(t *testing.T) {
	parent := mustManifest(t, `{"id": "p", "arguments": {"jvm": [
		"-Djava.library.path=${natives_directory}",
		{"rules": [{"action": "allow", "os": {"name": "osx"}}], "value": ["-XstartOnFirstThread"]},
		"-cp", "${classpath}"
	]}}`)
	child := mustManifest(t, `{"id": "c", "arguments": {"jvm": [
		"-cp", "${classpath}",
		{"rules": [{"action": "allow", "os": {"name": "osx"}}], "value": "-XstartOnFirstThread"},
		"--add-opens", "java.base/java.util.jar=cpw.mods.securejarhandler",
		"--add-opens", "java.base/java.lang.invoke=cpw.mods.securejarhandler"
	]}}`)

	merged := minecraft.Merge(parent, child)
	got := merged.Arguments.JVM.Tokens(minecraft.Platform{OS: "osx"}, nil)
	want := []string{
		"-Djava.library.path=${natives_directory}",
		"-XstartOnFirstThread",
		"-cp", "${classpath}",
		"--add-opens", "java.base/java.util.jar=cpw.mods.securejarhandler",
		"--add-opens", "java.base/java.lang.invoke=cpw.mods.securejarhandler",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("jvm args = %v, want %v", got, want)
	}
}

func TestLaunchManifest_UnmarshalJSON(t *testing.T) {
	m := mustManifest(t, `{
		"id": "1.20",
		"arguments": {
			"game": [
				"--demo-check",
				{"rules": [{"action": "allow", "features": {"is_demo_user": true}}], "value": "--demo"},
				{"rules": [{"action": "allow", "features": {"has_custom_resolution": true}}], "value": ["--width", "${resolution_width}"]}
			]
		},
		"javaVersion": {"component": "java-runtime-gamma", "majorVersion": 17},
		"downloads": {"client": {"sha1": "abc", "size": 12, "url": "https://example.com/client.jar"}},
		"logging": {"client": {"argument": "-Dlog4j.configurationFile=${path}", "file": {"id": "client-1.12.xml", "sha1": "def", "size": 3, "url": "https://example.com/client-1.12.xml"}, "type": "log4j2-xml"}}
	}`)

	if got := m.LaunchArgs(minecraft.Platform{}, nil); !reflect.DeepEqual(got, []string{"--demo-check"}) {
		t.Fatalf("unexpected args %v", got)
	}
	got := m.LaunchArgs(minecraft.Platform{}, minecraft.Features{"is_demo_user": true, "has_custom_resolution": true})
	if !reflect.DeepEqual(got, []string{"--demo-check", "--demo", "--width", "${resolution_width}"}) {
		t.Fatalf("unexpected args %v", got)
	}
	if m.Java().Component != "java-runtime-gamma" {
		t.Fatalf("unexpected java %v", m.Java())
	}
	if m.Downloads["client"].Size != 12 {
		t.Fatalf("unexpected client download %v", m.Downloads["client"])
	}
	if m.Logging.Client.File.ID != "client-1.12.xml" {
		t.Fatalf("unexpected logging %v", m.Logging.Client)
	}
	if m.JarName() != "1.20" || m.AssetsID() != "legacy" {
		t.Fatalf("unexpected defaults %s %s", m.JarName(), m.AssetsID())
	}
}

func TestLaunchManifest_LegacyArgs(t *testing.T) {
	m := mustManifest(t, `{"id": "1.8.9", "minecraftArguments": "--username ${auth_player_name} --version ${version_name}"}`)
	want := []string{"--username", "${auth_player_name}", "--version", "${version_name}"}
	if got := m.LaunchArgs(minecraft.Platform{}, nil); !reflect.DeepEqual(got, want) {
		t.Fatalf("LaunchArgs() = %v, want %v", got, want)
	}
	if m.Java() != minecraft.DefaultJavaVersion {
		t.Fatalf("expected default java, got %v", m.Java())
	}
}
